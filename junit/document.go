// Package junit models the JUnit XML report consumed by Jenkins-style CI dashboards.
//
// The document is a plain tree of records. It is assembled while results arrive
// and only rendered to text once a run is complete.
package junit

import (
	"encoding/xml"
	"fmt"
	"strconv"
)

// PropertyBrowserFullName is the suite property carrying the browser's full version string.
const PropertyBrowserFullName = "browser.fullName"

// TestSuites is the root element of a report, one per run.
type TestSuites struct {
	XMLName xml.Name     `xml:"testsuites"`
	Suites  []*TestSuite `xml:"testsuite"`
}

// TestSuite holds the results of one browser.
// Tests, Errors, Failures and Time stay nil until the browser completes.
type TestSuite struct {
	Name       string      `xml:"name,attr"`
	Package    string      `xml:"package,attr"`
	Timestamp  string      `xml:"timestamp,attr"`
	ID         int         `xml:"id,attr"`
	Hostname   string      `xml:"hostname,attr"`
	MakeTarget *string     `xml:"make_target,attr,omitempty"`
	Tests      *int        `xml:"tests,attr,omitempty"`
	Errors     *int        `xml:"errors,attr,omitempty"`
	Failures   *int        `xml:"failures,attr,omitempty"`
	Time       *Seconds    `xml:"time,attr,omitempty"`
	Properties *Properties `xml:"properties"`
	TestCases  []*TestCase `xml:"testcase"`
	SystemOut  *Output     `xml:"system-out,omitempty"`
	SystemErr  *Output     `xml:"system-err,omitempty"`
}

// Properties is the property list of a suite.
type Properties struct {
	Properties []Property `xml:"property"`
}

// Property is a single name/value pair.
type Property struct {
	Name  string `xml:"name,attr"`
	Value string `xml:"value,attr"`
}

// TestCase is one spec result.
type TestCase struct {
	Name         string     `xml:"name,attr"`
	Time         Seconds    `xml:"time,attr"`
	Classname    string     `xml:"classname,attr"`
	Package      string     `xml:"package,attr"`
	ParentSuites string     `xml:"parentSuites,attr"`
	Skipped      *Skipped   `xml:"skipped,omitempty"`
	Failures     []*Failure `xml:"failure,omitempty"`
}

// Skipped marks a test case that did not run.
type Skipped struct{}

// Failure is one failure entry of a test case.
type Failure struct {
	Type    string `xml:"type,attr"`
	Message string `xml:",chardata"`
}

// Output is captured text written as a CDATA section.
type Output struct {
	Data string `xml:",cdata"`
}

// Seconds is a duration in seconds, rendered as the shortest decimal that
// round-trips (0.15, 2, 12.5) rather than in exponent notation.
type Seconds float64

// SecondsFromMillis converts a millisecond count to Seconds.
func SecondsFromMillis(ms float64) Seconds {
	return Seconds(ms / 1000)
}

func (s Seconds) String() string {
	return strconv.FormatFloat(float64(s), 'f', -1, 64)
}

// MarshalXMLAttr implements xml.MarshalerAttr.
func (s Seconds) MarshalXMLAttr(name xml.Name) (xml.Attr, error) {
	return xml.Attr{Name: name, Value: s.String()}, nil
}

// UnmarshalXMLAttr implements xml.UnmarshalerAttr.
func (s *Seconds) UnmarshalXMLAttr(attr xml.Attr) error {
	v, err := strconv.ParseFloat(attr.Value, 64)
	if err != nil {
		return fmt.Errorf("invalid %s value %q: %w", attr.Name.Local, attr.Value, err)
	}
	*s = Seconds(v)
	return nil
}

// NewTestSuites returns an empty report document.
func NewTestSuites() *TestSuites {
	return &TestSuites{XMLName: xml.Name{Local: "testsuites"}}
}

// AddSuite appends a suite and returns it.
func (d *TestSuites) AddSuite(s *TestSuite) *TestSuite {
	d.Suites = append(d.Suites, s)
	return s
}

// AddProperty appends a property to the suite.
func (s *TestSuite) AddProperty(name, value string) {
	if s.Properties == nil {
		s.Properties = &Properties{}
	}
	s.Properties.Properties = append(s.Properties.Properties, Property{Name: name, Value: value})
}

// Property returns the value of the named property and whether it exists.
func (s *TestSuite) Property(name string) (string, bool) {
	if s.Properties == nil {
		return "", false
	}
	for _, p := range s.Properties.Properties {
		if p.Name == name {
			return p.Value, true
		}
	}
	return "", false
}

// AddTestCase appends a test case in arrival order and returns it.
func (s *TestSuite) AddTestCase(tc *TestCase) *TestCase {
	s.TestCases = append(s.TestCases, tc)
	return tc
}

// Finalize stamps the totals reported for the browser once it completes.
func (s *TestSuite) Finalize(tests, errors, failures int, elapsed Seconds) {
	s.Tests = &tests
	s.Errors = &errors
	s.Failures = &failures
	s.Time = &elapsed
}

// Completed returns true once Finalize has been called.
func (s *TestSuite) Completed() bool {
	return s.Tests != nil
}

// Failing reports whether the suite is incomplete or records any failure or error.
func (s *TestSuite) Failing() bool {
	if !s.Completed() {
		return true
	}
	return (s.Failures != nil && *s.Failures > 0) || (s.Errors != nil && *s.Errors > 0)
}

// SkippedCount returns the number of test cases marked as skipped.
func (s *TestSuite) SkippedCount() int {
	n := 0
	for _, tc := range s.TestCases {
		if tc.Skipped != nil {
			n++
		}
	}
	return n
}

// AddFailure appends a failure entry with an empty type.
func (tc *TestCase) AddFailure(message string) {
	tc.Failures = append(tc.Failures, &Failure{Type: "", Message: message})
}

// MarkSkipped attaches an empty skipped marker.
func (tc *TestCase) MarkSkipped() {
	tc.Skipped = &Skipped{}
}
