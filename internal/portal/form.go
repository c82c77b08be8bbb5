package portal

import (
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// ErrNoForm is returned by a FormExtractor when the selector matches no
// form. Callers decide whether that is a protocol failure or a credential
// rejection depending on the step.
var ErrNoForm = errors.New("portal: no form matched selector")

// Field is one form input. Fields keep document order: the portal expects
// the hidden inputs echoed back the way they were issued.
type Field struct {
	Name  string
	Value string
}

// Form is the transient extraction of one HTML form: its action URL and
// hidden fields. A Form is fully consumed by the next request.
type Form struct {
	Action string
	Fields []Field
}

// Set overwrites the first field with the given name, or appends it.
func (f *Form) Set(name, value string) {
	for i := range f.Fields {
		if f.Fields[i].Name == name {
			f.Fields[i].Value = value
			return
		}
	}
	f.Fields = append(f.Fields, Field{Name: name, Value: value})
}

// Get returns the value of the first field with the given name.
func (f *Form) Get(name string) (string, bool) {
	for _, field := range f.Fields {
		if field.Name == name {
			return field.Value, true
		}
	}
	return "", false
}

// Encode serializes the fields as application/x-www-form-urlencoded,
// preserving field order.
func (f *Form) Encode() string {
	var b strings.Builder
	for i, field := range f.Fields {
		if i > 0 {
			b.WriteByte('&')
		}
		b.WriteString(url.QueryEscape(field.Name))
		b.WriteByte('=')
		b.WriteString(url.QueryEscape(field.Value))
	}
	return b.String()
}

// FormExtractor pulls a form's action and hidden fields out of raw HTML.
// The state machine depends on this interface, not on the parser, so the
// flow is testable against canned fixtures.
type FormExtractor interface {
	ExtractForm(body io.Reader, selector string) (*Form, error)
}

// TableExtractor pulls the cell texts of every row matched by a selector.
// An absent table yields zero rows, not an error.
type TableExtractor interface {
	ExtractRows(body io.Reader, selector string) ([][]string, error)
}

// HTMLExtractor implements FormExtractor and TableExtractor with goquery.
type HTMLExtractor struct{}

// ExtractForm finds the first form matched by selector and returns its
// action attribute plus all hidden inputs in document order. Returns
// ErrNoForm when nothing matches and a plain error when the form has no
// action attribute.
func (HTMLExtractor) ExtractForm(body io.Reader, selector string) (*Form, error) {
	doc, err := goquery.NewDocumentFromReader(body)
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	sel := doc.Find(selector).First()
	if sel.Length() == 0 {
		return nil, ErrNoForm
	}

	action, ok := sel.Attr("action")
	if !ok || action == "" {
		return nil, fmt.Errorf("form matched by %q has no action attribute", selector)
	}

	form := &Form{Action: action}
	sel.Find(`input[type="hidden"]`).Each(func(_ int, input *goquery.Selection) {
		name, ok := input.Attr("name")
		if !ok || name == "" {
			return
		}
		value, _ := input.Attr("value")
		form.Fields = append(form.Fields, Field{Name: name, Value: value})
	})
	return form, nil
}

// ExtractRows returns the trimmed cell texts of every row matched by
// selector.
func (HTMLExtractor) ExtractRows(body io.Reader, selector string) ([][]string, error) {
	doc, err := goquery.NewDocumentFromReader(body)
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	var rows [][]string
	doc.Find(selector).Each(func(_ int, row *goquery.Selection) {
		var cells []string
		row.Find("td").Each(func(_ int, cell *goquery.Selection) {
			cells = append(cells, strings.TrimSpace(cell.Text()))
		})
		rows = append(rows, cells)
	})
	return rows, nil
}
