package utils

import (
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/taskmaster-dev/task-master/backend/internal/domain"
	"github.com/taskmaster-dev/task-master/backend/internal/service"
)

var firstNames = []string{
	"james", "mary", "robert", "patricia", "john", "jennifer", "michael", "linda",
	"david", "elizabeth", "william", "barbara", "richard", "susan", "joseph", "jessica",
	"thomas", "sarah", "charles", "karen", "daniel", "nancy", "matthew", "lisa",
}

var lastNames = []string{
	"smith", "johnson", "williams", "brown", "jones", "garcia", "miller", "davis",
	"rodriguez", "martinez", "hernandez", "lopez", "wilson", "anderson", "taylor", "moore",
}

var digits = "0123456789"

// GenerateUsername returns something like "jsmith42".
func GenerateUsername() string {
	first := firstNames[rand.Intn(len(firstNames))]
	last := lastNames[rand.Intn(len(lastNames))]

	var b strings.Builder
	b.WriteString(first[:rand.Intn(len(first))+1])
	b.WriteString(last)

	digitsLength := rand.Intn(3) + 1
	for i := 0; i < digitsLength; i++ {
		b.WriteByte(digits[rand.Intn(len(digits))])
	}

	return b.String()
}

func GenerateRandomUser(password string, emailDomainName string) service.RegisterInput {
	username := GenerateUsername()

	return service.RegisterInput{
		Username: username,
		Email:    username + "@" + emailDomainName,
		Password: password,
	}
}

var letters = []rune("abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789")

func GenerateRandomID(letterLength int, digitLength int) string {
	random_id := make([]rune, letterLength+digitLength)
	for i := range random_id {
		if i < letterLength {
			random_id[i] = letters[rand.Intn(len(letters))]
		} else {
			random_id[i] = rune(digits[rand.Intn(len(digits))])
		}
	}
	return string(random_id)
}

var verbs = []string{"Review", "Write", "Fix", "Plan", "Update", "Test", "Deploy", "Document"}
var subjects = []string{"release notes", "login page", "billing report", "onboarding flow", "API docs", "backup job", "sprint board"}

// GenerateRandomTask returns a task due somewhere within the next 60 days,
// or up to 30 days overdue.
func GenerateRandomTask(now time.Time) service.CreateTaskInput {
	due := now.AddDate(0, 0, rand.Intn(90)-30)

	return service.CreateTaskInput{
		Title:       fmt.Sprintf("%s %s", verbs[rand.Intn(len(verbs))], subjects[rand.Intn(len(subjects))]),
		Description: "Generated task " + GenerateRandomID(6, 4),
		DueDate:     due.Format(time.DateOnly),
		Priority:    string(domain.Priorities[rand.Intn(len(domain.Priorities))]),
		Status:      string(domain.Statuses[rand.Intn(len(domain.Statuses))]),
	}
}

// GenerateRandomSubset picks between one and len(ids) ids using a partial
// Fisher-Yates shuffle. ids is left untouched.
func GenerateRandomSubset(ids []string) []string {
	if len(ids) == 0 {
		return nil
	}

	idsCopy := append([]string{}, ids...)

	for i := 0; i < len(idsCopy)-1; i++ {
		j := rand.Intn(len(idsCopy)-i) + i
		idsCopy[i], idsCopy[j] = idsCopy[j], idsCopy[i]
	}

	l := rand.Intn(len(idsCopy)) + 1
	return idsCopy[:l]
}
