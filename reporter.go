package jenkins

import (
	"context"
	"os"
	"strings"
	"sync"

	"code.cloudfoundry.org/clock"
	"github.com/ethereum/go-ethereum/log"
	"github.com/google/uuid"

	"github.com/ethereum-optimism/infra/jenkins-reporter/events"
	"github.com/ethereum-optimism/infra/jenkins-reporter/junit"
	"github.com/ethereum-optimism/infra/jenkins-reporter/metrics"
	"github.com/ethereum-optimism/infra/jenkins-reporter/reporting"
	"github.com/ethereum-optimism/infra/jenkins-reporter/types"
)

// MakeTargetEnv names the environment variable copied into each suite's make_target attribute.
const MakeTargetEnv = "MAKE_TARGET"

// timestampLayout is ISO-8601 truncated to seconds, without a zone suffix.
const timestampLayout = "2006-01-02T15:04:05"

var browserNameReplacer = strings.NewReplacer(" ", "_", ".", "_")

var _ events.Host = (*JenkinsReporter)(nil)

// RunCompleteHook is called with every finished document before it is written.
type RunCompleteHook func(runID string, doc *junit.TestSuites)

// run is the state of one test run, from run start to run complete.
// The message log belongs to the run and is shared by all of its browsers.
type run struct {
	id       string
	doc      *junit.TestSuites
	suites   map[string]*junit.TestSuite
	messages *reporting.MessageLog
}

func newRun() *run {
	return &run{
		id:       uuid.New().String(),
		doc:      junit.NewTestSuites(),
		suites:   make(map[string]*junit.TestSuite),
		messages: reporting.NewMessageLog(),
	}
}

// JenkinsReporter turns runner lifecycle notifications into one JUnit XML
// report per run. Reports are written asynchronously; OnExit defers process
// exit until every write has finished.
type JenkinsReporter struct {
	log            log.Logger
	pkgName        string
	useBrowserName bool
	outputFile     string

	writer        reporting.ReportWriter
	clock         clock.Clock
	formatError   ErrorFormatter
	nameFormatter NameFormatter
	hostname      func() (string, error)
	lookupEnv     func(string) (string, bool)
	onRunComplete RunCompleteHook

	mu      sync.Mutex
	current *run

	latch reporting.WriteLatch
}

// NewJenkinsReporter creates a reporter writing to cfg.OutputFile.
func NewJenkinsReporter(cfg *Config) *JenkinsReporter {
	r := &JenkinsReporter{
		log:            cfg.Log.New("module", "reporter.jenkins"),
		pkgName:        cfg.Suite,
		useBrowserName: cfg.UseBrowserName,
		outputFile:     cfg.OutputFile,
		writer:         reporting.NewFileWriter(cfg.OutputFile),
		clock:          clock.NewClock(),
		formatError:    FormatError,
		nameFormatter:  DefaultNameFormatter,
		hostname:       os.Hostname,
		lookupEnv:      os.LookupEnv,
	}
	r.latch.Observe(metrics.SetPendingWrites)
	return r
}

// WithWriter replaces the destination of finished reports.
func (r *JenkinsReporter) WithWriter(w reporting.ReportWriter) *JenkinsReporter {
	r.writer = w
	return r
}

func (r *JenkinsReporter) WithClock(c clock.Clock) *JenkinsReporter {
	r.clock = c
	return r
}

// WithFormatError sets the formatter applied to every failure message.
func (r *JenkinsReporter) WithFormatError(f ErrorFormatter) *JenkinsReporter {
	r.formatError = f
	return r
}

func (r *JenkinsReporter) WithNameFormatter(f NameFormatter) *JenkinsReporter {
	r.nameFormatter = f
	return r
}

func (r *JenkinsReporter) WithHostname(f func() (string, error)) *JenkinsReporter {
	r.hostname = f
	return r
}

func (r *JenkinsReporter) WithLookupEnv(f func(string) (string, bool)) *JenkinsReporter {
	r.lookupEnv = f
	return r
}

func (r *JenkinsReporter) WithRunCompleteHook(h RunCompleteHook) *JenkinsReporter {
	r.onRunComplete = h
	return r
}

// OutputFile returns the path reports are written to.
func (r *JenkinsReporter) OutputFile() string {
	return r.outputFile
}

// OnRunStart discards any unfinished run and starts an empty document.
func (r *JenkinsReporter) OnRunStart(browsers []*types.Browser) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.current != nil {
		r.log.Warn("Run started before the previous one completed, discarding its results", "run_id", r.current.id)
		metrics.RecordDropped("run")
	}
	r.current = newRun()
	r.log.Info("Run started", "run_id", r.current.id, "browsers", len(browsers))
}

// OnBrowserStart adds a suite for browser to the current document.
func (r *JenkinsReporter) OnBrowserStart(browser *types.Browser) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.current == nil {
		r.drop("browser_start", browser)
		return
	}

	hostname, err := r.hostname()
	if err != nil {
		r.log.Warn("Cannot resolve hostname", "err", err)
	}

	suite := &junit.TestSuite{
		Name:      browser.Name,
		Package:   r.pkgName,
		Timestamp: r.clock.Now().UTC().Format(timestampLayout),
		ID:        0,
		Hostname:  hostname,
	}
	if target, ok := r.lookupEnv(MakeTargetEnv); ok {
		suite.MakeTarget = &target
	}
	suite.AddProperty(junit.PropertyBrowserFullName, browser.FullName)

	r.current.doc.AddSuite(suite)
	r.current.suites[browser.ID] = suite
	r.log.Debug("Browser started", "run_id", r.current.id, "browser", browser.Name, "id", browser.ID)
}

func (r *JenkinsReporter) SpecSuccess(browser *types.Browser, result *types.SpecResult) {
	r.onSpec(browser, result)
}

func (r *JenkinsReporter) SpecSkipped(browser *types.Browser, result *types.SpecResult) {
	r.onSpec(browser, result)
}

func (r *JenkinsReporter) SpecFailure(browser *types.Browser, result *types.SpecResult) {
	r.onSpec(browser, result)
}

func (r *JenkinsReporter) onSpec(browser *types.Browser, result *types.SpecResult) {
	r.mu.Lock()
	defer r.mu.Unlock()

	suite := r.suite(browser)
	if suite == nil {
		r.drop("spec", browser)
		return
	}

	name := browserName(browser, suite)
	pkg := name
	if r.pkgName != "" {
		pkg = r.pkgName + " " + name
	}

	tc := suite.AddTestCase(&junit.TestCase{
		Name:         r.nameFormatter(browser, result),
		Time:         junit.SecondsFromMillis(result.Time),
		Classname:    r.className(name, result),
		Package:      pkg,
		ParentSuites: result.SuitePath("|"),
	})

	status := result.Status()
	switch status {
	case types.SpecStatusSkip:
		tc.MarkSkipped()
	case types.SpecStatusFail:
		for _, entry := range result.Log {
			tc.AddFailure(r.formatError(entry))
		}
	}
	metrics.RecordSpec(name, status)
}

func (r *JenkinsReporter) className(browser string, result *types.SpecResult) string {
	var sb strings.Builder
	if r.useBrowserName {
		sb.WriteString(browserNameReplacer.Replace(browser))
		sb.WriteString(".")
	}
	if r.pkgName != "" {
		sb.WriteString(r.pkgName)
		sb.WriteString(".")
	}
	sb.WriteString(result.TopSuite())
	return sb.String()
}

// OnBrowserComplete stamps the browser's final result on its suite and captures
// the run's message log as system-out. Browsers without a suite or a final
// result are left untouched.
func (r *JenkinsReporter) OnBrowserComplete(browser *types.Browser) {
	r.mu.Lock()
	defer r.mu.Unlock()

	suite := r.suite(browser)
	if suite == nil {
		r.drop("browser_complete", browser)
		return
	}
	result := browser.LastResult
	if result == nil {
		r.drop("browser_complete", browser)
		return
	}

	errs := 0
	if result.Errored() {
		errs = 1
	}
	suite.Finalize(result.Total, errs, result.Failed, junit.SecondsFromMillis(result.NetTime))
	suite.SystemOut = &junit.Output{Data: r.current.messages.SystemOut()}
	suite.SystemErr = &junit.Output{}

	metrics.RecordSuite(browserName(browser, suite), result.Errored())
	r.log.Debug("Browser completed", "run_id", r.current.id, "browser", suite.Name,
		"tests", result.Total, "failures", result.Failed, "errors", errs, "messages", r.current.messages.Len())
}

// OnRunComplete hands the finished document to the writer and returns without
// waiting for the write. The reporter is idle again as soon as it returns.
func (r *JenkinsReporter) OnRunComplete() {
	r.mu.Lock()
	finished := r.current
	r.current = nil
	if finished == nil {
		r.mu.Unlock()
		r.drop("run_complete", nil)
		return
	}
	r.latch.Add()
	r.mu.Unlock()

	r.log.Info("Run completed", "run_id", finished.id, "suites", len(finished.doc.Suites))
	if r.onRunComplete != nil {
		r.onRunComplete(finished.id, finished.doc)
	}

	go r.write(finished)
}

func (r *JenkinsReporter) write(finished *run) {
	err := r.writer.WriteReport(context.Background(), finished.doc)
	if err != nil {
		r.log.Warn("Cannot write xml", "run_id", finished.id, "err", err)
	} else {
		r.log.Debug("Xml results written", "run_id", finished.id, "path", r.outputFile)
	}
	metrics.RecordReportWrite(err)

	r.latch.Done()
}

// OnExit calls done once no report write is in flight: immediately if none is,
// otherwise when the last one finishes. Only the latest pending done is kept.
func (r *JenkinsReporter) OnExit(done func()) {
	if n := r.latch.Pending(); n > 0 {
		r.log.Debug("Deferring exit until reports are written", "pending", n)
	}
	r.latch.OnDrain(done)
}

// WaitForWrites blocks until no report write is in flight or ctx is done.
// It registers through OnExit and so replaces any callback stored there.
func (r *JenkinsReporter) WaitForWrites(ctx context.Context) error {
	drained := make(chan struct{})
	r.OnExit(func() { close(drained) })
	select {
	case <-drained:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// PendingWrites returns the number of report writes in flight.
func (r *JenkinsReporter) PendingWrites() int {
	return r.latch.Pending()
}

// Message records a log line emitted by the runner during the current run.
func (r *JenkinsReporter) Message(msg string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.current == nil {
		metrics.RecordDropped("message")
		return
	}
	r.current.messages.Append(msg)
	metrics.RecordMessage()
}

// Adapters returns the log sinks the runner should feed with every log line.
func (r *JenkinsReporter) Adapters() []func(msg string) {
	return []func(msg string){r.Message}
}

func (r *JenkinsReporter) suite(browser *types.Browser) *junit.TestSuite {
	if r.current == nil {
		return nil
	}
	return r.current.suites[browser.ID]
}

func (r *JenkinsReporter) drop(notification string, browser *types.Browser) {
	if browser != nil {
		r.log.Debug("Ignoring notification without context", "notification", notification, "browser", browser.ID)
	} else {
		r.log.Debug("Ignoring notification without context", "notification", notification)
	}
	metrics.RecordDropped(notification)
}

// browserName prefers the name carried by the notification and falls back to
// the name the suite was created with.
func browserName(browser *types.Browser, suite *junit.TestSuite) string {
	if browser.Name != "" {
		return browser.Name
	}
	return suite.Name
}
