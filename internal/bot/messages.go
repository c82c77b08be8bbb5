package bot

import (
	"errors"
	"fmt"
	"strings"

	"github.com/mrivasf/jornada/internal/portal"
)

const helpText = `🤖 *Comandos disponibles*
/info — informe de la semana actual
/infop — informe de la semana anterior
/dia — registrar un día (HOY, AYER o YYYYMMDD)
/version — versión del bot
/help — esta ayuda`

const askDayText = "📅 ¿Qué día quieres registrar? (HOY, AYER o YYYYMMDD)"

// errorMessage maps an operation error to the Spanish reply shown in the
// chat. The taxonomy mirrors the portal error types.
func errorMessage(err error) string {
	switch {
	case portal.IsInvalidCredentials(err):
		return "❌ Credenciales inválidas. Revisa el usuario y la contraseña."
	case portal.IsValidationError(err):
		return fmt.Sprintf("⚠️ Datos no válidos: %v", err)
	case portal.IsProtocolError(err):
		return "⚠️ El portal ha cambiado de estructura. Hace falta actualizar el bot."
	}

	var regErr *portal.RegistrationError
	if errors.As(err, &regErr) {
		return fmt.Sprintf("❌ No se pudo registrar la jornada del %s.", regErr.Date)
	}
	var repErr *portal.ReportError
	if errors.As(err, &repErr) {
		return "❌ No se pudo obtener el informe semanal."
	}
	return "❌ Algo ha fallado, revisa los logs."
}

// cannedReply answers free text that is not part of a pending flow.
// Unknown text points at the help.
func cannedReply(text, username string) string {
	lower := strings.ToLower(text)
	switch {
	case containsAny(lower, "gracias", "thank", "thx", "cool"):
		return "De nada 😊"
	case containsAny(lower, "hola", "hi", "hello", "hey", "yo", "buenas"):
		if username != "" {
			return fmt.Sprintf("👋 Hola, %s", username)
		}
		return "👋 Hola"
	}
	return "No te he entendido. Prueba /help"
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

func isYes(text string) bool {
	switch strings.ToLower(strings.TrimSpace(text)) {
	case "s", "si", "sí", "y", "yes":
		return true
	}
	return false
}

func isNo(text string) bool {
	switch strings.ToLower(strings.TrimSpace(text)) {
	case "n", "no":
		return true
	}
	return false
}
