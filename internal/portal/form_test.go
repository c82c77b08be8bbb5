package portal

import (
	"errors"
	"strings"
	"testing"
)

const redirectPage = `<html><body>
<form action="https://oam.example.com/auth" method="post">
  <input type="hidden" name="request_id" value="abc123">
  <input type="hidden" name="OAM_REQ" value="token-data">
  <input type="text" name="visible" value="ignored">
</form>
</body></html>`

const loginPage = `<html><body>
<div>
<form id="loginData" action="/oam/server/auth_cred_submit" method="post">
  <input type="hidden" name="username" value="">
  <input type="hidden" name="password" value="">
  <input type="hidden" name="request_id" value="xyz">
</form>
</div>
</body></html>`

// ============================================================
// Form extraction
// ============================================================

func TestExtractForm(t *testing.T) {
	form, err := HTMLExtractor{}.ExtractForm(strings.NewReader(redirectPage), "body form")
	if err != nil {
		t.Fatalf("ExtractForm: %v", err)
	}
	if form.Action != "https://oam.example.com/auth" {
		t.Errorf("Action = %q", form.Action)
	}
	// Hidden fields only, in document order.
	if len(form.Fields) != 2 {
		t.Fatalf("Fields = %v, want 2 hidden fields", form.Fields)
	}
	if form.Fields[0].Name != "request_id" || form.Fields[0].Value != "abc123" {
		t.Errorf("field 0 = %+v", form.Fields[0])
	}
	if form.Fields[1].Name != "OAM_REQ" || form.Fields[1].Value != "token-data" {
		t.Errorf("field 1 = %+v", form.Fields[1])
	}
}

func TestExtractFormByID(t *testing.T) {
	form, err := HTMLExtractor{}.ExtractForm(strings.NewReader(loginPage), "form#loginData")
	if err != nil {
		t.Fatalf("ExtractForm: %v", err)
	}
	if form.Action != "/oam/server/auth_cred_submit" {
		t.Errorf("Action = %q", form.Action)
	}
	if len(form.Fields) != 3 {
		t.Errorf("Fields = %v", form.Fields)
	}
}

func TestExtractFormNotFound(t *testing.T) {
	// A page with a form whose attributes differ from the selector is a
	// miss, same as no form at all.
	_, err := HTMLExtractor{}.ExtractForm(strings.NewReader(redirectPage), "form#loginData")
	if !errors.Is(err, ErrNoForm) {
		t.Fatalf("err = %v, want ErrNoForm", err)
	}

	_, err = HTMLExtractor{}.ExtractForm(strings.NewReader("<html><body><p>hi</p></body></html>"), "body form")
	if !errors.Is(err, ErrNoForm) {
		t.Fatalf("err = %v, want ErrNoForm", err)
	}
}

func TestExtractFormNoAction(t *testing.T) {
	page := `<html><body><form><input type="hidden" name="a" value="1"></form></body></html>`
	_, err := HTMLExtractor{}.ExtractForm(strings.NewReader(page), "body form")
	if err == nil || errors.Is(err, ErrNoForm) {
		t.Fatalf("err = %v, want plain error for missing action", err)
	}
}

// ============================================================
// Form value handling
// ============================================================

func TestFormSetAndEncode(t *testing.T) {
	form := &Form{Fields: []Field{
		{Name: "username", Value: ""},
		{Name: "request_id", Value: "r1"},
	}}
	form.Set("username", "jdoe")
	form.Set("temp-username", "jdoe")

	if got, _ := form.Get("username"); got != "jdoe" {
		t.Errorf("Get(username) = %q", got)
	}

	encoded := form.Encode()
	want := "username=jdoe&request_id=r1&temp-username=jdoe"
	if encoded != want {
		t.Errorf("Encode() = %q, want %q", encoded, want)
	}
}

func TestFormEncodeEscapes(t *testing.T) {
	form := &Form{Fields: []Field{{Name: "fechaini", Value: "08/12/2025 09:00"}}}
	if got := form.Encode(); got != "fechaini=08%2F12%2F2025+09%3A00" {
		t.Errorf("Encode() = %q", got)
	}
}

// ============================================================
// Table extraction
// ============================================================

const reportPage = `<html><body>
<table id="tblEventos">
<tbody>
<tr><td>1001</td><td>DOE, JOHN</td><td>08/12/2025 09:00</td><td>TELETRABAJO</td><td>08/12/2025 18:00</td><td>9:00</td></tr>
<tr><td>1001</td><td>DOE, JOHN</td><td>09/12/2025 08:00</td><td>SEDE LA FINCA</td><td>09/12/2025 15:00</td><td>7:00</td></tr>
</tbody>
</table>
</body></html>`

func TestExtractRows(t *testing.T) {
	rows, err := HTMLExtractor{}.ExtractRows(strings.NewReader(reportPage), "#tblEventos > tbody > tr")
	if err != nil {
		t.Fatalf("ExtractRows: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("rows = %d, want 2", len(rows))
	}
	if rows[0][2] != "08/12/2025 09:00" || rows[0][3] != "TELETRABAJO" || rows[0][4] != "08/12/2025 18:00" {
		t.Errorf("row 0 = %v", rows[0])
	}
}

func TestExtractRowsAbsentTable(t *testing.T) {
	rows, err := HTMLExtractor{}.ExtractRows(strings.NewReader("<html><body></body></html>"), "#tblEventos > tbody > tr")
	if err != nil {
		t.Fatalf("ExtractRows: %v", err)
	}
	if len(rows) != 0 {
		t.Errorf("rows = %v, want none", rows)
	}
}
