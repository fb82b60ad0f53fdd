//go:build gui

package gui

import (
	"sync"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/driver/desktop"
	"github.com/go-gl/glfw/v3.3/glfw"

	"voiceclip/log"
	"voiceclip/status"
)

const (
	panelWidth  = 300
	panelHeight = 64
	pad         = 10
	meterHeight = 4
	dockMargin  = 24
)

// App is the overlay window. Show may be called from any goroutine; Run must
// be called on the process main thread.
type App struct {
	level func() float64
	pres  *presenter

	mu       sync.Mutex
	running  bool
	quitting bool
	pending  *Caption
	tone     Tone

	fyneApp fyne.App
	window  fyne.Window
	content *fyne.Container
	caption *canvas.Text
	bar     *canvas.Rectangle
	layout  *panelLayout
	shown   bool
	posX    int
	posY    int

	stop     chan struct{}
	stopOnce sync.Once
}

// New returns an overlay whose level bar reads level while listening.
func New(level func() float64) *App {
	a := &App{level: level, stop: make(chan struct{})}
	a.pres = newPresenter(a.showCaption, a.hide)
	return a
}

func (a *App) Show(u status.Update) { a.pres.Show(u) }

// Run builds the hidden window and runs the fyne event loop until Quit.
func (a *App) Run() {
	a.mu.Lock()
	if a.quitting {
		a.mu.Unlock()
		return
	}
	a.fyneApp = app.NewWithID("io.voiceclip.overlay")
	a.mu.Unlock()
	a.fyneApp.Settings().SetTheme(overlayTheme{})

	if drv, ok := a.fyneApp.Driver().(desktop.Driver); ok {
		a.window = drv.CreateSplashWindow()
	} else {
		a.window = a.fyneApp.NewWindow("voiceclip")
	}

	bg := canvas.NewRectangle(panelColor)
	bg.CornerRadius = 12
	a.caption = canvas.NewText("", textColor)
	a.caption.TextSize = 15
	a.caption.Alignment = fyne.TextAlignCenter
	a.bar = canvas.NewRectangle(toneColor(Listening))
	a.layout = &panelLayout{}
	a.content = container.New(a.layout, bg, a.caption, a.bar)

	a.window.SetContent(a.content)
	a.window.SetFixedSize(true)
	a.window.SetPadded(false)
	a.window.Resize(fyne.NewSize(panelWidth, panelHeight))

	screenW, screenH := 1920, 1080
	if m := glfw.GetPrimaryMonitor(); m != nil {
		_, _, screenW, screenH = m.GetWorkarea()
	}
	a.posX = (screenW - panelWidth) / 2
	a.posY = screenH - panelHeight - dockMargin

	a.fyneApp.Lifecycle().SetOnStarted(func() {
		a.mu.Lock()
		a.running = true
		c := a.pending
		a.pending = nil
		quitting := a.quitting
		a.mu.Unlock()
		if quitting {
			a.fyneApp.Quit()
			return
		}
		if c != nil {
			a.showCaption(*c)
		}
		go a.animate()
	})

	log.Info("overlay started")
	a.fyneApp.Run()
	a.stopOnce.Do(func() { close(a.stop) })
}

// Quit ends Run. It is safe to call more than once and before Run.
func (a *App) Quit() {
	a.mu.Lock()
	a.quitting = true
	fa := a.fyneApp
	a.mu.Unlock()
	if fa != nil {
		fa.Quit()
	}
}

func (a *App) showCaption(c Caption) {
	a.mu.Lock()
	if !a.running {
		a.pending = &c
		a.mu.Unlock()
		return
	}
	a.tone = c.Tone
	a.mu.Unlock()

	fyne.Do(func() {
		a.caption.Text = c.Text
		a.bar.FillColor = toneColor(c.Tone)
		a.layout.fill = 1
		if c.Tone == Listening {
			a.layout.fill = 0
		}
		a.content.Refresh()
		if !a.shown {
			a.raise()
			a.shown = true
		}
	})
}

func (a *App) hide() {
	a.mu.Lock()
	if !a.running {
		a.pending = nil
		a.mu.Unlock()
		return
	}
	a.tone = Hidden
	a.mu.Unlock()

	fyne.Do(func() {
		a.window.Hide()
		a.shown = false
	})
}

// raise shows the window at the bottom centre of the screen without taking
// focus. It runs on the fyne thread.
func (a *App) raise() {
	if w := glfw.GetCurrentContext(); w != nil {
		w.SetPos(a.posX, a.posY)
		w.SetAttrib(glfw.FocusOnShow, glfw.False)
		w.SetAttrib(glfw.Floating, glfw.True)
		w.Show()
		return
	}
	a.window.Show()
}

func (a *App) animate() {
	t := time.NewTicker(50 * time.Millisecond)
	defer t.Stop()
	var m meter
	for {
		select {
		case <-a.stop:
			return
		case <-t.C:
		}
		a.mu.Lock()
		listening := a.tone == Listening
		a.mu.Unlock()
		if !listening {
			m = meter{}
			continue
		}
		f := m.step(a.level())
		fyne.Do(func() {
			a.layout.fill = f
			a.content.Refresh()
		})
	}
}

// panelLayout stacks the background, the caption and the level bar. fill is
// the bar's share of the inner width.
type panelLayout struct {
	fill float32
}

func (l *panelLayout) Layout(objs []fyne.CanvasObject, size fyne.Size) {
	bg, text, bar := objs[0], objs[1], objs[2]
	bg.Move(fyne.NewPos(0, 0))
	bg.Resize(size)

	inner := size.Width - 2*pad
	text.Move(fyne.NewPos(pad, pad))
	text.Resize(fyne.NewSize(inner, size.Height-2*pad-meterHeight))
	bar.Move(fyne.NewPos(pad, size.Height-pad-meterHeight))
	bar.Resize(fyne.NewSize(inner*l.fill, meterHeight))
}

func (l *panelLayout) MinSize([]fyne.CanvasObject) fyne.Size {
	return fyne.NewSize(panelWidth, panelHeight)
}
