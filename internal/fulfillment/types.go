package fulfillment

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spigell/pawmatch/internal/ai"
	"github.com/spigell/pawmatch/internal/pets"
	"github.com/spigell/pawmatch/internal/ranking"
)

// Status is the outcome of a fulfillment.
type Status string

const (
	StatusFinal          Status = "FINAL"
	StatusNeedsParameter Status = "NEEDS_PARAMETER"
	StatusError          Status = "ERROR"
)

// Request is an inbound fulfillment call.
type Request struct {
	Tag               string         `json:"tag"`
	SessionParameters map[string]any `json:"session_parameters"`
	ConversationID    string         `json:"conversation_id"`
	CurrentPage       string         `json:"current_page,omitempty"`
	RawText           string         `json:"raw_text,omitempty"`
	// History carries prior turns for free-text resolution when the caller tracks them.
	History []ai.Turn `json:"history,omitempty"`
}

// Response is the outbound fulfillment result.
type Response struct {
	Messages               []Message      `json:"messages"`
	SessionParametersPatch map[string]any `json:"session_parameters_patch"`
	Status                 Status         `json:"status"`
}

type MessageType string

const (
	MessageText         MessageType = "text"
	MessageCandidates   MessageType = "candidates"
	MessageCandidate    MessageType = "candidate"
	MessageConfirmation MessageType = "confirmation"
)

// Message is one structured display segment.
type Message struct {
	Type         MessageType       `json:"type"`
	Text         string            `json:"text,omitempty"`
	Candidates   []CandidateView   `json:"candidates,omitempty"`
	Candidate    *CandidateView    `json:"candidate,omitempty"`
	Confirmation map[string]string `json:"confirmation,omitempty"`
}

// CandidateView is the display projection of a candidate.
type CandidateView struct {
	ID           string   `json:"id"`
	Name         string   `json:"name,omitempty"`
	Species      string   `json:"species,omitempty"`
	Breed        string   `json:"breed,omitempty"`
	AgeBand      string   `json:"age_band,omitempty"`
	Size         string   `json:"size,omitempty"`
	Sex          string   `json:"sex,omitempty"`
	City         string   `json:"city,omitempty"`
	State        string   `json:"state,omitempty"`
	Organization string   `json:"organization,omitempty"`
	Photo        string   `json:"photo,omitempty"`
	Score        *float64 `json:"score,omitempty"`
	Explanation  []string `json:"explanation,omitempty"`
}

func viewOf(c *pets.Candidate) CandidateView {
	v := CandidateView{
		ID:           c.ID,
		Name:         c.Name,
		Species:      c.Species,
		Breed:        c.BreedLabel(),
		AgeBand:      c.AgeBand,
		Size:         c.Size,
		Sex:          c.Sex,
		City:         c.Location.City,
		State:        c.Location.State,
		Organization: c.Organization.Name,
	}
	if len(c.Media) > 0 {
		v.Photo = c.Media[0]
	}
	return v
}

func viewOfMatch(m ranking.Match) CandidateView {
	v := viewOf(m.Candidate)
	score := m.Score.Overall
	v.Score = &score
	v.Explanation = m.Explanation
	return v
}

func textMessage(format string, args ...any) Message {
	return Message{Type: MessageText, Text: fmt.Sprintf(format, args...)}
}

// Render flattens the message into plain text for text-only channels.
func (m Message) Render() string {
	switch m.Type {
	case MessageCandidates:
		var b strings.Builder
		for i, c := range m.Candidates {
			if i > 0 {
				b.WriteString("\n")
			}
			fmt.Fprintf(&b, "%d. %s", i+1, c.line())
		}
		return b.String()
	case MessageCandidate:
		if m.Candidate == nil {
			return ""
		}
		return m.Candidate.line()
	case MessageConfirmation:
		keys := make([]string, 0, len(m.Confirmation))
		for key := range m.Confirmation {
			keys = append(keys, key)
		}
		sort.Strings(keys)
		parts := make([]string, 0, len(keys))
		for _, key := range keys {
			parts = append(parts, key+": "+m.Confirmation[key])
		}
		return strings.Join(parts, ", ")
	default:
		return m.Text
	}
}

func (v CandidateView) line() string {
	name := v.Name
	if name == "" {
		name = "Unnamed"
	}
	details := strings.Join(nonEmpty(v.AgeBand, v.Sex, v.Breed), " ")
	line := fmt.Sprintf("%s (ID: %s)", name, v.ID)
	if details != "" {
		line += ", " + details
	}
	if place := strings.Join(nonEmpty(v.City, v.State), ", "); place != "" {
		line += " in " + place
	}
	if len(v.Explanation) > 0 {
		line += " [" + strings.Join(v.Explanation, ", ") + "]"
	}
	return line
}

func nonEmpty(values ...string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
