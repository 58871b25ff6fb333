package tui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// NotificationDuration is how long a notification stays in the status bar
const NotificationDuration = 5 * time.Second

// Notification is a short-lived status bar message
type Notification struct {
	id        int
	Message   string
	IsError   bool
	Timestamp time.Time
}

// Expired reports whether the notification should no longer be shown
func (n *Notification) Expired(now time.Time) bool {
	return now.Sub(n.Timestamp) >= NotificationDuration
}

func (m *Model) notify(msg string) tea.Cmd {
	return m.setNotification(msg, false)
}

func (m *Model) notifyError(msg string) tea.Cmd {
	return m.setNotification(msg, true)
}

// setNotification replaces the current notification. Only the expiry of the
// latest one clears the status bar.
func (m *Model) setNotification(msg string, isError bool) tea.Cmd {
	m.notifySeq++
	id := m.notifySeq
	m.notification = &Notification{
		id:        id,
		Message:   msg,
		IsError:   isError,
		Timestamp: time.Now(),
	}
	return tea.Tick(NotificationDuration, func(time.Time) tea.Msg {
		return notificationExpiredMsg{id: id}
	})
}
