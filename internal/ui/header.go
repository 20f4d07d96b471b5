package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/five82/nevu/internal/plex"
)

// Title is the window title for the connected server: the server's friendly
// name with its first letter upper-cased, followed by " - Nevu". Without a
// known server it is just "Nevu".
func Title(server *plex.Server) string {
	if server == nil || server.FriendlyName == "" {
		return "Nevu"
	}
	return capitalize(server.FriendlyName) + " - Nevu"
}

// renderHeader renders the title line: title, user, watch list age and an
// offline marker.
func (m Model) renderHeader() string {
	styles := m.theme.Styles()
	bg := NewBgStyle(m.theme.Surface)

	sess := m.sessionSnap.Value
	parts := []string{bg.Render(Title(sess.Server), styles.Logo)}

	compact := m.width > 0 && m.width < LayoutCompactWidth
	if !compact {
		if sess.User != nil {
			parts = append(parts, bg.Render(sess.User.DisplayName(), styles.Text))
		}
		parts = append(parts, bg.Render(m.formatUpdated(), styles.MutedText))
	}
	if m.watchSnap.IsOffline() || m.sessionSnap.IsOffline() {
		parts = append(parts, styles.Offline.Render("OFFLINE"))
	}

	return bg.FillLine(bg.Join(parts, "  "), m.width)
}

// formatUpdated describes how old the watch list is.
func (m Model) formatUpdated() string {
	snap := m.watchSnap
	switch {
	case !snap.Loaded && snap.LastError != nil:
		return "watch list unavailable"
	case !snap.Loaded:
		return "loading..."
	case snap.LastUpdated.IsZero():
		return ""
	}
	return "updated " + humanizeAge(m.now.Sub(snap.LastUpdated))
}

// renderCommandBar renders the view tabs and the short key help.
func (m Model) renderCommandBar() string {
	styles := m.theme.Styles()
	tabs := make([]string, 0, len(viewOrder))
	for _, v := range viewOrder {
		if v == m.currentView {
			tabs = append(tabs, styles.ActiveTab.Render(v.String()))
		} else {
			tabs = append(tabs, styles.Tab.Render(v.String()))
		}
	}
	return strings.Join(tabs, "") + "  " + m.help.ShortHelpView(m.helpKeys())
}

func humanizeAge(d time.Duration) string {
	if d < time.Second {
		return "just now"
	}
	if d < time.Minute {
		return fmt.Sprintf("%ds ago", int(d.Seconds()))
	}
	if d < time.Hour {
		return fmt.Sprintf("%dm ago", int(d.Minutes()))
	}
	return fmt.Sprintf("%dh ago", int(d.Hours()))
}
