package domain

const (
	MailTypeWelcome      = "welcome"
	MailTypeTaskAssigned = "task_assigned"
)

type MailMessage struct {
	Type string `json:"type"`
	To   string `json:"to"`
	Data any    `json:"data"`
}

type WelcomeMailData struct {
	Username string `json:"username"`
}

type TaskAssignedMailData struct {
	Username  string `json:"username"`
	TaskID    string `json:"taskId"`
	TaskTitle string `json:"taskTitle"`
	DueDate   string `json:"dueDate"`
	Priority  string `json:"priority"`
}
