package portal

import (
	"context"
	"fmt"
	"strings"

	"github.com/mrivasf/jornada/internal/workday"
)

// RegisterWorkday submits one attendance registration through the
// registration-app Session. Input is validated before any network call.
//
// Success detection is heuristic: the upstream gives no structured signal,
// so status 200 with no "error" substring in the body is taken as success.
func (f *Flow) RegisterWorkday(ctx context.Context, session *Session, reg workday.Registration) (workday.Registration, error) {
	if err := reg.Validate(); err != nil {
		return reg, &ValidationError{Reason: err.Error()}
	}

	dateStr := reg.Date.Format(workday.DateFormat)
	f.logger.Info("registering workday",
		"date", dateStr, "start", reg.StartTime, "end", reg.EndTime, "location", reg.Location)

	form := &Form{Fields: []Field{
		{Name: "tipoAccion", Value: "horaRegistroCargada"},
		{Name: "motivo", Value: "1"},
		{Name: "fechaini", Value: fmt.Sprintf("%s %s", dateStr, reg.StartTime)},
		{Name: "fechafin", Value: fmt.Sprintf("%s %s", dateStr, reg.EndTime)},
		{Name: "sede", Value: reg.Location},
		{Name: "horaEfectiva", Value: ""},
	}}

	body, status, err := session.PostForm(ctx, f.endpoints.ActionURL, form)
	if err != nil {
		return reg, &RegistrationError{Date: dateStr, Reason: fmt.Sprintf("network error: %v", err)}
	}

	if !looksSuccessful(status, body) {
		reg.Success = false
		reg.Message = "Registration failed - check response"
		return reg, &RegistrationError{Date: dateStr, Reason: "server returned error in response"}
	}

	reg.Success = true
	reg.Message = fmt.Sprintf("Registered successfully: %s %s-%s", dateStr, reg.StartTime, reg.EndTime)
	f.logger.Info("workday registered", "date", dateStr)
	return reg, nil
}

func looksSuccessful(status int, body []byte) bool {
	return status == 200 && !strings.Contains(strings.ToLower(string(body)), "error")
}
