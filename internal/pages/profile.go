package pages

import (
	"bytes"
	"context"
	"strings"

	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"

	"github.com/verte-zerg/typemaster/internal/api"
	"github.com/verte-zerg/typemaster/internal/model"
	"github.com/verte-zerg/typemaster/internal/stats"
)

type profileMode int

const (
	profileView profileMode = iota
	profileEditBio
	profileEditAvatar
)

type profileLoadedMsg struct {
	gen     uint64
	profile model.ProfileStats
	err     error
}

type profileSavedMsg struct {
	gen     uint64
	profile model.Profile
	err     error
}

// Profile shows the user profile and edits the bio and avatar.
type Profile struct {
	backend Backend
	logger  *log.Logger

	session model.Session
	gen     uint64
	stats   model.ProfileStats
	loading bool
	saving  bool
	mode    profileMode

	bio    textarea.Model
	avatar textinput.Model

	width  int
	height int
}

func newProfile(backend Backend, logger *log.Logger) *Profile {
	bio := textarea.New()
	bio.Placeholder = "Tell others about yourself"
	bio.CharLimit = 500
	bio.ShowLineNumbers = false
	bio.SetHeight(3)
	return &Profile{
		backend: backend,
		logger:  logger,
		bio:     bio,
		avatar:  newInput("Image path: ", "~/Pictures/me.png"),
	}
}

// Capturing reports whether an editor has the keyboard.
func (p *Profile) Capturing() bool {
	return p.mode != profileView
}

// Stats returns the loaded profile.
func (p *Profile) Stats() model.ProfileStats {
	return p.stats
}

func (p *Profile) setSize(width, height int) {
	p.width = width
	p.height = height
	p.bio.SetWidth(max(20, min(width-4, 60)))
	p.avatar.Width = max(10, min(width-16, 60))
}

// Load fetches the profile of s.
func (p *Profile) Load(s model.Session) tea.Cmd {
	p.session = s
	p.gen++
	p.loading = true
	p.mode = profileView
	gen, backend := p.gen, p.backend
	return func() tea.Msg {
		profile, err := backend.Profile(context.Background(), s)
		return profileLoadedMsg{gen: gen, profile: profile, err: err}
	}
}

func (p *Profile) save(update model.ProfileUpdate) tea.Cmd {
	p.saving = true
	gen, backend, s := p.gen, p.backend, p.session
	return func() tea.Msg {
		profile, err := backend.UpdateProfile(context.Background(), s, update)
		return profileSavedMsg{gen: gen, profile: profile, err: err}
	}
}

// Update applies backend answers and handles the editor keys.
func (p *Profile) Update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case profileLoadedMsg:
		if msg.gen != p.gen {
			return nil
		}
		p.loading = false
		if msg.err != nil {
			p.logger.Error("fetch profile failed", "user", p.session.Username, "err", msg.err)
			p.stats = model.ProfileStats{Profile: model.Profile{Username: p.session.Username}}
			return errorAlert(api.UserMessage(msg.err, "Failed to load profile"))
		}
		p.stats = msg.profile
		return nil
	case profileSavedMsg:
		if msg.gen != p.gen {
			return nil
		}
		p.saving = false
		if msg.err != nil {
			p.logger.Error("update profile failed", "user", p.session.Username, "err", msg.err)
			return errorAlert(api.UserMessage(msg.err, "Failed to update profile"))
		}
		if msg.profile.Username != "" {
			p.stats.Username = msg.profile.Username
		}
		p.stats.Bio = msg.profile.Bio
		if msg.profile.AvatarRef != "" {
			p.stats.AvatarRef = msg.profile.AvatarRef
		}
		p.closeEditor()
		return showAlert(alertSuccess, "Profile updated", 0)
	case tea.KeyMsg:
		return p.handleKey(msg)
	}
	return p.updateEditor(msg)
}

func (p *Profile) handleKey(msg tea.KeyMsg) tea.Cmd {
	if p.saving {
		return nil
	}
	switch p.mode {
	case profileView:
		switch msg.String() {
		case "e":
			p.mode = profileEditBio
			p.bio.SetValue(p.stats.Bio)
			return p.bio.Focus()
		case "a":
			p.mode = profileEditAvatar
			p.avatar.SetValue("")
			return p.avatar.Focus()
		case "r":
			return p.Load(p.session)
		}
		return nil
	case profileEditBio:
		switch msg.String() {
		case "esc":
			p.closeEditor()
			return nil
		case "ctrl+s":
			return p.save(model.ProfileUpdate{Bio: p.bio.Value()})
		}
	case profileEditAvatar:
		switch msg.String() {
		case "esc":
			p.closeEditor()
			return nil
		case "enter":
			path := strings.TrimSpace(p.avatar.Value())
			if path == "" {
				return errorAlert("Please enter an image path")
			}
			return p.save(model.ProfileUpdate{Bio: p.stats.Bio, ImagePath: path})
		}
	}
	return p.updateEditor(msg)
}

func (p *Profile) updateEditor(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	switch p.mode {
	case profileEditBio:
		p.bio, cmd = p.bio.Update(msg)
	case profileEditAvatar:
		p.avatar, cmd = p.avatar.Update(msg)
	}
	return cmd
}

func (p *Profile) closeEditor() {
	p.mode = profileView
	p.bio.Blur()
	p.avatar.Blur()
}

// View renders the profile card and the open editor.
func (p *Profile) View() string {
	if p.loading {
		return brandStyle.Render("Profile") + "\n\n" + headerStyle.Render("Loading...")
	}
	var buf bytes.Buffer
	avatar := ""
	if p.stats.AvatarRef != "" {
		avatar = p.backend.AvatarURL(p.stats.AvatarRef)
	}
	if err := stats.RenderProfile(&buf, p.stats, avatar); err != nil {
		return errorStyle.Render(err.Error())
	}
	sections := []string{
		brandStyle.Render("Profile"),
		"",
		cardStyle.Render(strings.TrimRight(buf.String(), "\n")),
		"",
	}
	switch p.mode {
	case profileEditBio:
		sections = append(sections, cardTitleStyle.Render("Edit bio"), p.bio.View(), headerStyle.Render("ctrl+s save · esc cancel"))
	case profileEditAvatar:
		sections = append(sections, cardTitleStyle.Render("Upload avatar"), p.avatar.View(), headerStyle.Render("enter upload · esc cancel"))
	default:
		sections = append(sections, headerStyle.Render("[e] edit bio   [a] change avatar   [r] reload"))
	}
	if p.saving {
		sections = append(sections, headerStyle.Render("Saving..."))
	}
	return strings.Join(sections, "\n")
}
