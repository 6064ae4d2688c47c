package reminders

import (
	"strings"

	"github.com/agendaja-app/agendaja-backend/pkg/db/models"
)

const (
	dateLayout = "02/01/2006"
	timeLayout = "15:04"
)

// TemplateData holds the placeholder values substituted into a reminder
// template. Empty fields render as empty strings.
type TemplateData struct {
	CompanyName      string
	ClientName       string
	ServiceName      string
	ProfessionalName string
	AppointmentDate  string
	AppointmentTime  string
}

// TemplateDataFor extracts placeholder values from a preloaded appointment.
func TemplateDataFor(appointment models.Appointment) TemplateData {
	data := TemplateData{
		ClientName:      appointment.ClientName,
		AppointmentDate: appointment.StartsAt.Format(dateLayout),
		AppointmentTime: appointment.StartsAt.Format(timeLayout),
	}
	if appointment.Company != nil {
		data.CompanyName = appointment.Company.FantasyName
	}
	if appointment.Service != nil {
		data.ServiceName = appointment.Service.Name
	}
	if appointment.Professional != nil {
		data.ProfessionalName = appointment.Professional.Name
	}
	return data
}

// Render substitutes the known placeholders into the template.
func Render(template string, data TemplateData) string {
	replacer := strings.NewReplacer(
		"{companyName}", data.CompanyName,
		"{clientName}", data.ClientName,
		"{serviceName}", data.ServiceName,
		"{professionalName}", data.ProfessionalName,
		"{appointmentDate}", data.AppointmentDate,
		"{appointmentTime}", data.AppointmentTime,
	)
	return replacer.Replace(template)
}
