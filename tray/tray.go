// Package tray shows the application state in the system tray and offers
// record, model and language controls from its menu.
package tray

import (
	"fmt"
	"sync"

	"fyne.io/systray"

	"voiceclip/model"
	"voiceclip/status"
)

// Handlers are invoked from menu clicks. Nil handlers hide their items.
type Handlers struct {
	Toggle      func()
	CopyLast    func()
	SwitchModel func(name string)
	SetLanguage func(code string)
	AutoPaste   func(on bool)
}

// Menu is the initial menu content.
type Menu struct {
	Models    []model.Descriptor
	Model     string
	Language  string
	AutoPaste bool
	Hotkey    string
}

type Language struct {
	Code  string // ISO-639-1
	Label string
}

// Languages offered in the menu; "" leaves the choice to the engine.
var Languages = []Language{
	{"", "Engine default"},
	{"auto", "Auto-detect"},
	{"zh", "Chinese"},
	{"cs", "Czech"},
	{"da", "Danish"},
	{"nl", "Dutch"},
	{"en", "English"},
	{"fi", "Finnish"},
	{"fr", "French"},
	{"de", "German"},
	{"el", "Greek"},
	{"hi", "Hindi"},
	{"hu", "Hungarian"},
	{"id", "Indonesian"},
	{"it", "Italian"},
	{"ja", "Japanese"},
	{"ko", "Korean"},
	{"no", "Norwegian"},
	{"pl", "Polish"},
	{"pt", "Portuguese"},
	{"ro", "Romanian"},
	{"ru", "Russian"},
	{"es", "Spanish"},
	{"sv", "Swedish"},
	{"tr", "Turkish"},
	{"uk", "Ukrainian"},
	{"vi", "Vietnamese"},
}

var (
	quitCh    = make(chan struct{})
	closeOnce sync.Once

	mu       sync.Mutex
	handlers Handlers
	menu     Menu
	ready    bool

	mStatus    *systray.MenuItem
	mRecord    *systray.MenuItem
	mCopy      *systray.MenuItem
	mAutoPaste *systray.MenuItem
	modelItems []*systray.MenuItem
	langItems  []*systray.MenuItem
)

// Configure must be called before Init.
func Configure(m Menu, h Handlers) {
	mu.Lock()
	menu = m
	handlers = h
	mu.Unlock()
}

// Quit closes the quit channel and removes the icon if it was shown.
func Quit() {
	closeOnce.Do(func() { close(quitCh) })
	mu.Lock()
	started := ready
	mu.Unlock()
	if started {
		systray.Quit()
	}
}

func onClick(item *systray.MenuItem, fn func()) {
	go func() {
		for {
			select {
			case <-item.ClickedCh:
				fn()
			case <-quitCh:
				return
			}
		}
	}()
}

func onReady() {
	mu.Lock()
	defer mu.Unlock()

	systray.SetTemplateIcon(iconIdleHi, iconIdle)
	systray.SetTooltip(tooltipFor(status.Update{}, menu.Hotkey))

	mStatus = systray.AddMenuItem(statusLine(status.Update{}), "")
	mStatus.Disable()
	systray.AddSeparator()

	if h := handlers.Toggle; h != nil {
		mRecord = systray.AddMenuItem("Start Recording", "Start or stop recording")
		onClick(mRecord, h)
	}
	if h := handlers.CopyLast; h != nil {
		mCopy = systray.AddMenuItem("Copy Last Transcription", "Copy the last transcription to the clipboard")
		onClick(mCopy, h)
	}
	systray.AddSeparator()

	if h := handlers.SwitchModel; h != nil && len(menu.Models) > 0 {
		parent := systray.AddMenuItem("Model", "Select whisper model")
		modelItems = make([]*systray.MenuItem, len(menu.Models))
		for i, d := range menu.Models {
			title, enabled := modelTitle(d)
			item := parent.AddSubMenuItemCheckbox(title, d.File, d.Name == menu.Model)
			if !enabled {
				item.Disable()
			}
			name := d.Name
			onClick(item, func() { h(name) })
			modelItems[i] = item
		}
	}

	if h := handlers.SetLanguage; h != nil {
		parent := systray.AddMenuItem("Language", "Select transcription language")
		langItems = make([]*systray.MenuItem, len(Languages))
		for i, l := range Languages {
			item := parent.AddSubMenuItemCheckbox(l.Label, l.Code, l.Code == menu.Language)
			code := l.Code
			onClick(item, func() { h(code) })
			langItems[i] = item
		}
	}

	if h := handlers.AutoPaste; h != nil {
		mAutoPaste = systray.AddMenuItemCheckbox("Auto-paste", "Paste into the focused window after copying", menu.AutoPaste)
		item := mAutoPaste
		onClick(item, func() {
			if item.Checked() {
				item.Uncheck()
			} else {
				item.Check()
			}
			h(item.Checked())
		})
	}

	systray.AddSeparator()
	mQuit := systray.AddMenuItem("Quit", "Quit voiceclip")
	onClick(mQuit, func() { closeOnce.Do(func() { close(quitCh) }) })

	ready = true
}

func onExit() {
	closeOnce.Do(func() { close(quitCh) })
}

func modelTitle(d model.Descriptor) (string, bool) {
	if !d.Downloaded {
		return d.Label + " (not downloaded)", false
	}
	return d.Label, true
}

func statusLine(u status.Update) string {
	switch u.State {
	case status.Recording:
		return "Recording…"
	case status.Transcribing:
		return "Transcribing…"
	case status.Error:
		return "Error: " + u.Reason.Message()
	}
	if u.Notice != "" {
		return u.Notice
	}
	return "Ready"
}

func tooltipFor(u status.Update, hotkey string) string {
	if u.State == status.Idle && u.Notice == "" {
		if hotkey == "" {
			return "voiceclip – push to talk"
		}
		return fmt.Sprintf("voiceclip – hold %s to talk", hotkey)
	}
	return "voiceclip – " + statusLine(u)
}

// recordItem is the title of the record toggle and whether it can be used.
func recordItem(s status.State) (string, bool) {
	switch s {
	case status.Recording:
		return "Stop Recording", true
	case status.Transcribing:
		return "Transcribing…", false
	}
	return "Start Recording", true
}

func check(items []*systray.MenuItem, idx int) {
	for i, it := range items {
		if i == idx {
			it.Check()
		} else {
			it.Uncheck()
		}
	}
}

// Indicator mirrors status updates into the tray.
type Indicator struct{}

func (Indicator) Show(u status.Update) {
	mu.Lock()
	defer mu.Unlock()
	if !ready {
		return
	}

	if u.State == status.Idle {
		systray.SetTemplateIcon(iconIdleHi, iconIdle)
	} else {
		systray.SetIcon(iconFor(u.State))
	}
	systray.SetTooltip(tooltipFor(u, menu.Hotkey))
	mStatus.SetTitle(statusLine(u))

	if mRecord != nil {
		title, enabled := recordItem(u.State)
		mRecord.SetTitle(title)
		if enabled {
			mRecord.Enable()
		} else {
			mRecord.Disable()
		}
	}

	if u.Model != menu.Model && len(modelItems) > 0 {
		for i, d := range menu.Models {
			if d.Name == u.Model {
				check(modelItems, i)
			}
		}
	}
	menu.Model = u.Model

	if u.Language != menu.Language && len(langItems) > 0 {
		for i, l := range Languages {
			if l.Code == u.Language {
				check(langItems, i)
			}
		}
	}
	menu.Language = u.Language
}
