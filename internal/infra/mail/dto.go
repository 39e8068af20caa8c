package mail

type WonEmailData struct {
	LeadID       int
	StageName    string
	Amount       string
	ProjectValue string
	Remark       string
	ActorID      int
	CommittedAt  string
}

type EmailSender struct {
	Host     string
	Port     int
	User     string
	Password string
	From     string
	To       []string
}
