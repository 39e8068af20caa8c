package mail

import (
	"bytes"
	"context"
	"fmt"
	"strconv"
	"text/template"
	"time"

	"gopkg.in/gomail.v2"

	"github.com/xavierca1/leadflow/internal/infra/queue"
)

var wonTemplate = template.Must(template.New("won").Parse(`<h2>Lead #{{.LeadID}} reached {{.StageName}}</h2>
<p>Closed by user {{.ActorID}} at {{.CommittedAt}}.</p>
{{if .Amount}}<p>Amount: {{.Amount}}</p>{{end}}
{{if .ProjectValue}}<p>Project value: {{.ProjectValue}}</p>{{end}}
<blockquote>{{.Remark}}</blockquote>
`))

func NewEmailSender(host string, port int, user, password, from string, to []string) *EmailSender {
	return &EmailSender{
		Host:     host,
		Port:     port,
		User:     user,
		Password: password,
		From:     from,
		To:       to,
	}
}

// RenderWon builds the HTML body of the Won announcement.
func RenderWon(event queue.StageCommittedEvent) (string, error) {
	data := WonEmailData{
		LeadID:       event.LeadID,
		StageName:    event.StageName,
		Amount:       formatOptional(event.Amount),
		ProjectValue: formatOptional(event.ProjectValue),
		Remark:       event.Remark,
		ActorID:      event.ActorID,
		CommittedAt:  event.CommittedAt.Format(time.RFC1123),
	}

	var body bytes.Buffer
	if err := wonTemplate.Execute(&body, data); err != nil {
		return "", fmt.Errorf("render won email: %w", err)
	}
	return body.String(), nil
}

func (s *EmailSender) NotifyWon(_ context.Context, event queue.StageCommittedEvent) error {
	if s.Host == "" || len(s.To) == 0 {
		return nil
	}

	body, err := RenderWon(event)
	if err != nil {
		return err
	}

	m := gomail.NewMessage()
	m.SetHeader("From", s.From)
	m.SetHeader("To", s.To...)
	m.SetHeader("Subject", fmt.Sprintf("Lead #%d won 🎉", event.LeadID))
	m.SetBody("text/html", body)

	d := gomail.NewDialer(s.Host, s.Port, s.User, s.Password)
	if err := d.DialAndSend(m); err != nil {
		return fmt.Errorf("send won email: %w", err)
	}
	return nil
}

func formatOptional(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', 2, 64)
}
