package tui

import (
	"fmt"
	"strings"

	"github.com/Joseda-hg/lazyteam/internal/model"
	"github.com/Joseda-hg/lazyteam/internal/taskcard"
)

const (
	ansiReset = "\x1b[0m"
	ansiDim   = "\x1b[2m"
)

var statusANSI = map[string]string{
	model.StatusCompleted:  "\x1b[32m",
	model.StatusInReview:   "\x1b[33m",
	model.StatusNotStarted: "\x1b[31m",
	model.StatusInProgress: "\x1b[34m",
}

func formatStatus(status string) string {
	color, ok := statusANSI[status]
	if !ok {
		color = ansiDim
	}
	return fmt.Sprintf("%s[%s]%s", color, status, ansiReset)
}

func formatAvatars(card taskcard.Card) string {
	parts := make([]string, 0, len(card.Avatars)+1)
	for _, avatar := range card.Avatars {
		parts = append(parts, "("+avatar.Initial+")")
	}
	if card.More > 0 {
		parts = append(parts, fmt.Sprintf("+%d", card.More))
	}
	if len(parts) == 0 {
		return "-"
	}
	return strings.Join(parts, " ")
}

func formatCardSummary(card taskcard.Card) string {
	del := "     "
	if card.CanDelete {
		del = "[del]"
	}
	return fmt.Sprintf("%-30s | %-22s | %s | %s %s", truncate(card.Name, 30), card.Date, formatStatus(card.Status), formatAvatars(card), del)
}

func formatMemberDetail(member model.Member) []string {
	return []string{
		fmt.Sprintf("ID: %s", member.ID),
		fmt.Sprintf("First: %s", member.FirstName),
		fmt.Sprintf("Last: %s", member.LastName),
		fmt.Sprintf("DOB: %s", member.DOB),
	}
}

func displayName(profile model.Profile) string {
	name := strings.TrimSpace(profile.FirstName + " " + profile.LastName)
	if name == "" {
		return profile.ID
	}
	if profile.Role != "" {
		return fmt.Sprintf("%s (%s)", name, profile.Role)
	}
	return name
}

func truncate(value string, width int) string {
	runes := []rune(value)
	if len(runes) <= width {
		return value
	}
	if width <= 1 {
		return string(runes[:width])
	}
	return string(runes[:width-1]) + "…"
}
