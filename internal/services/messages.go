package services

import (
	"fmt"
	"strings"

	"github.com/recuerdame/recuerdame-backend/internal/models"
)

// All user-facing texts live here so the conversational surface can be
// reviewed (and translated) in one place. Every rejection repeats the prompt
// of the field still being requested, so the user always knows where they are.

const (
	msgPromptTitle       = "📝 *¿Cuál es el título del recordatorio?*"
	msgPromptDescription = "✏️ *Describe el recordatorio:*"
	msgPromptDate        = "📅 *Fecha (DD/MM/AAAA, \"hoy\", \"mañana\", \"en X días\"):*"
	msgPromptTime        = "⏰ *Hora (HH:MM):*"

	msgAlreadyInProgress = "⚠️ Ya tienes un recordatorio en proceso. Completémoslo primero."
	msgCancelled         = "❌ Recordatorio cancelado. Puedes empezar uno nuevo con .r"
	msgNothingToCancel   = "ℹ️ No hay ningún recordatorio en proceso para cancelar."
	msgSaveFailed        = "❌ Error al guardar el recordatorio. Por favor envía la hora nuevamente para reintentar."
	msgNoPending         = "📋 No tienes recordatorios pendientes."

	msgInvalidDate = "❌ *Fecha no válida*\n" +
		"*Ejemplos aceptados:*\n• *hoy*\n• *mañana*\n• *en 3 días*\n• *25/12/2024 (DD/MM/AAAA)*"
	msgInvalidTime = "❌ Formato de hora inválido. Usa HH:MM (ej: 14:30)"

	msgHelp = "🤖 *Comandos disponibles:*\n\n" +
		"📝 *.r* o *.recordatorio* - Crear nuevo recordatorio\n" +
		"📋 *.ver* o *.lista* - Ver recordatorios pendientes\n" +
		"❌ *.cancelar* - Cancelar recordatorio en curso\n" +
		"❓ *.ayuda* - Mostrar esta ayuda\n\n" +
		"💡 *Formatos de fecha:*\n• hoy, mañana, en 3 días\n• DD/MM/AAAA (ej: 25/12/2024)\n\n" +
		"⏰ *Formato de hora:* HH:MM (ej: 14:30)"
)

// commandRejected is sent when a free-text answer starts with the command
// prefix; the current field's prompt is repeated after it.
func commandRejected(prompt string) string {
	return "⚠️ Eso parece un comando, no lo guardo como respuesta.\n\n" + prompt
}

// saveConfirmation summarizes a freshly persisted reminder.
func saveConfirmation(r *models.Reminder) string {
	return fmt.Sprintf("✅ *Recordatorio guardado exitosamente:*\n"+
		"📌 *Título:* %s\n"+
		"✏️ *Descripción:* %s\n"+
		"📅 *Fecha:* %s\n"+
		"⏰ *Hora:* %s\n\n"+
		"🔔 Te recordaré el %s a las %s",
		r.Title, r.Description, r.Date, r.Time, r.Date, r.Time)
}

// pendingList renders the undelivered reminders of one chat.
func pendingList(reminders []*models.Reminder) string {
	var b strings.Builder
	b.WriteString("📋 *Tus recordatorios pendientes:*\n\n")
	for i, r := range reminders {
		fmt.Fprintf(&b, "%d. 📌 *%s*\n   📅 %s ⏰ %s\n   ✏️ %s\n\n", i+1, r.Title, r.Date, r.Time, r.Description)
	}
	return strings.TrimRight(b.String(), "\n")
}

// ReminderMessage is the text delivered when a reminder comes due.
func ReminderMessage(r *models.Reminder) string {
	return fmt.Sprintf("🔔 *¡RECORDATORIO!*\n\n"+
		"📌 *%s*\n"+
		"✏️ %s\n\n"+
		"📅 Programado para: %s a las %s",
		r.Title, r.Description, r.Date, r.Time)
}
