package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/mcoot/partygame/internal/api/response"
	"github.com/mcoot/partygame/internal/model"
)

// Output formats
const (
	FormatText = "text"
	FormatJSON = "json"
	FormatYAML = "yaml"
)

// Output handles formatting output based on the configured format
type Output struct {
	w      io.Writer
	format string
}

// NewOutput creates a new Output formatter writing to w
func NewOutput(w io.Writer, format string) *Output {
	return &Output{w: w, format: format}
}

// ValidFormat reports whether format is supported
func ValidFormat(format string) bool {
	switch format {
	case FormatText, FormatJSON, FormatYAML:
		return true
	}
	return false
}

// Print outputs data in the configured format
func (o *Output) Print(data any) {
	switch o.format {
	case FormatJSON:
		o.printJSON(data)
	case FormatYAML:
		o.printYAML(data)
	default:
		o.printText(data)
	}
}

// PrintError outputs an error
func (o *Output) PrintError(err error) {
	switch o.format {
	case FormatJSON:
		errData := map[string]any{
			"error": map[string]string{
				"message": err.Error(),
			},
		}
		data, _ := json.Marshal(errData)
		_, _ = fmt.Fprintln(o.w, string(data))
	default:
		_, _ = fmt.Fprintf(o.w, "Error: %s\n", err)
	}
}

// PrintMessage outputs a simple message
func (o *Output) PrintMessage(msg string) {
	switch o.format {
	case FormatJSON:
		data, _ := json.Marshal(map[string]string{"message": msg})
		_, _ = fmt.Fprintln(o.w, string(data))
	case FormatYAML:
		o.printYAML(map[string]string{"message": msg})
	default:
		_, _ = fmt.Fprintln(o.w, msg)
	}
}

// PrintUpdate outputs one observed party state while watching. Text output
// is a single line; structured formats emit one document per update.
func (o *Output) PrintUpdate(p *model.Party) {
	switch o.format {
	case FormatJSON:
		data, _ := json.Marshal(p)
		_, _ = fmt.Fprintln(o.w, string(data))
	case FormatYAML:
		_, _ = fmt.Fprintln(o.w, "---")
		o.printYAML(p)
	default:
		names := make([]string, len(p.Players))
		for i, player := range p.Players {
			names[i] = player.Name
		}
		_, _ = fmt.Fprintf(o.w, "%s  %s  status=%s  players=%d [%s]\n",
			p.UpdatedAt.Format(time.RFC3339), p.Code, p.Status, len(p.Players), strings.Join(names, ", "))
	}
}

func (o *Output) printJSON(data any) {
	enc := json.NewEncoder(o.w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(data)
}

// printYAML renders data through its JSON form so field names and order
// match the API
func (o *Output) printYAML(data any) {
	raw, err := json.Marshal(data)
	if err != nil {
		o.PrintError(err)
		return
	}
	var node yaml.Node
	if err := yaml.Unmarshal(raw, &node); err != nil {
		o.PrintError(err)
		return
	}
	clearStyle(&node)

	enc := yaml.NewEncoder(o.w)
	enc.SetIndent(2)
	_ = enc.Encode(&node)
	_ = enc.Close()
}

// clearStyle drops the flow and quoting styles inherited from JSON
func clearStyle(node *yaml.Node) {
	node.Style = 0
	for _, child := range node.Content {
		clearStyle(child)
	}
}

func (o *Output) printText(data any) {
	switch v := data.(type) {
	case *model.Party:
		o.printParty(v)
	case *model.User:
		o.printUser(v)
	case response.AuthResponse:
		o.printAuthResult(v)
	case response.PartyList:
		o.printPartyList(v)
	case *response.Profile:
		o.printProfile(v)
	case response.SaveGameResponse:
		o.printSaveGame(v)
	case HealthResult:
		o.printHealthResult(v)
	default:
		// Fallback to JSON for unknown types
		o.printJSON(data)
	}
}

// HealthResult response type
type HealthResult struct {
	Status string `json:"status"`
}

func (o *Output) printUser(u *model.User) {
	_, _ = fmt.Fprintf(o.w, "User: %s (%s)\n", u.DisplayName(), u.ID)
	_, _ = fmt.Fprintf(o.w, "Email: %s\n", u.Email)
	if !u.LastLogin.IsZero() {
		_, _ = fmt.Fprintf(o.w, "Last login: %s\n", u.LastLogin.Format(time.RFC3339))
	}
}

func (o *Output) printAuthResult(a response.AuthResponse) {
	if a.User != nil {
		o.printUser(a.User)
	}
	_, _ = fmt.Fprintf(o.w, "Token: %s\n", a.SessionToken)
}

func (o *Output) printParty(p *model.Party) {
	_, _ = fmt.Fprintf(o.w, "Party: %s (%s)\n", p.Code, p.ID)
	_, _ = fmt.Fprintf(o.w, "Game: %s\n", p.Game)
	_, _ = fmt.Fprintf(o.w, "Status: %s\n", p.Status)
	_, _ = fmt.Fprintf(o.w, "Host: %s (%s)\n", p.HostName, p.HostID)
	_, _ = fmt.Fprintf(o.w, "Players (%d):\n", len(p.Players))
	for _, player := range p.Players {
		hostStr := ""
		if p.IsHost(player.UserID) {
			hostStr = " [host]"
		}
		_, _ = fmt.Fprintf(o.w, "  - %s (%s)%s\n", player.Name, player.UserID, hostStr)
	}
	_, _ = fmt.Fprintf(o.w, "Updated: %s\n", p.UpdatedAt.Format(time.RFC3339))
}

func (o *Output) printPartyList(l response.PartyList) {
	if len(l.Parties) == 0 {
		_, _ = fmt.Fprintln(o.w, "No active parties")
		return
	}
	for _, p := range l.Parties {
		_, _ = fmt.Fprintf(o.w, "%s  %-16s  %-11s  %d players  (%s)\n", p.Code, p.Game, p.Status, len(p.Players), p.ID)
	}
}

func (o *Output) printProfile(p *response.Profile) {
	if p.User != nil {
		o.printUser(p.User)
	}
	_, _ = fmt.Fprintf(o.w, "Games played: %d\n", p.Stats.TotalGames)
	if p.Stats.FavoriteGame != "" {
		_, _ = fmt.Fprintf(o.w, "Favorite game: %s\n", p.Stats.FavoriteGame)
	}
	_, _ = fmt.Fprintf(o.w, "Time played: %s\n", time.Duration(p.Stats.TotalDurationSeconds)*time.Second)
	if len(p.GameHistory) > 0 {
		_, _ = fmt.Fprintln(o.w, "\nHistory:")
		for _, h := range p.GameHistory {
			_, _ = fmt.Fprintf(o.w, "  %s  %-16s  %s\n", h.Timestamp.Format(time.RFC3339), h.Game, strings.Join(h.Players, ", "))
		}
	}
}

func (o *Output) printSaveGame(r response.SaveGameResponse) {
	if r.GameHistory == nil {
		_, _ = fmt.Fprintln(o.w, "Game recorded")
		return
	}
	_, _ = fmt.Fprintf(o.w, "Recorded %s (%s)\n", r.GameHistory.Game, r.GameHistory.ID)
}

func (o *Output) printHealthResult(h HealthResult) {
	_, _ = fmt.Fprintf(o.w, "Status: %s\n", h.Status)
}
