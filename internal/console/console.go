// Package console runs the booking flow as a line-oriented terminal session.
package console

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"romaantica/internal/booking"
	"romaantica/internal/calendar"
)

const helpText = `Comandi:
  data AAAA-MM-GG | oggi | domani | weekend
  calendario [+|-]        mostra il mese
  orario HH:MM
  ospiti N
  nome|email|telefono|note <testo>
  avanti, indietro, conferma
  stato, annulla, menu, aiuto, esci`

var stepTitles = map[booking.Step]string{
	booking.StepDateTime:  "Data e orario",
	booking.StepPartySize: "Numero di ospiti",
	booking.StepContact:   "I tuoi dati",
}

var contactCommands = map[string]booking.Field{
	"nome":     booking.FieldName,
	"email":    booking.FieldEmail,
	"telefono": booking.FieldPhone,
	"note":     booking.FieldSpecialRequests,
}

// Options configures a Console.
type Options struct {
	MenuURL string
	Now     func() time.Time
	Logger  *zerolog.Logger
}

// Console is the terminal host of a single booking session.
type Console struct {
	factory func(booking.Host) *booking.Controller
	in      io.Reader
	now     func() time.Time
	menuURL string
	logger  zerolog.Logger

	outMu sync.Mutex
	out   io.Writer

	lines chan string
	done  chan booking.Route
	ctrl  *booking.Controller

	mu     sync.Mutex
	last   booking.State
	picker *calendar.Picker
}

// New creates a console reading commands from in and writing to out.
func New(in io.Reader, out io.Writer, factory func(booking.Host) *booking.Controller, opts Options) *Console {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	logger := zerolog.Nop()
	if opts.Logger != nil {
		logger = *opts.Logger
	}
	return &Console{
		factory: factory,
		in:      in,
		out:     out,
		now:     opts.Now,
		menuURL: opts.MenuURL,
		logger:  logger,
		done:    make(chan booking.Route, 1),
	}
}

// Run drives one booking session until it navigates away, the input ends or
// ctx is done. It returns the route the session left for, empty when it
// was abandoned.
func (c *Console) Run(ctx context.Context) (booking.Route, error) {
	c.lines = make(chan string)
	go c.read()

	c.ctrl = c.factory(c)
	unsubscribe := c.ctrl.Subscribe(c.onState)
	defer unsubscribe()
	defer c.ctrl.Close()

	c.println("🍝 Roma Antica · Prenota un tavolo (scrivi \"aiuto\" per i comandi)")
	c.ctrl.Start(ctx)

	for {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case route := <-c.done:
			return route, nil
		case line, ok := <-c.lines:
			if !ok {
				return "", nil
			}
			if quit := c.exec(line); quit {
				return "", nil
			}
		}
	}
}

func (c *Console) read() {
	defer close(c.lines)
	scanner := bufio.NewScanner(c.in)
	for scanner.Scan() {
		c.lines <- scanner.Text()
	}
	if err := scanner.Err(); err != nil {
		c.logger.Error().Err(err).Msg("read input failed")
	}
}

// Navigate ends the session.
func (c *Console) Navigate(route booking.Route) {
	switch route {
	case booking.RouteMenu:
		if c.menuURL != "" {
			c.println("Scopri il nostro menu: " + c.menuURL)
		} else {
			c.println("Scopri il nostro menu")
		}
	default:
		c.println("Grazie per aver scelto Roma Antica!")
	}
	select {
	case c.done <- route:
	default:
	}
}

// ScrollTo repeats a submission error at the bottom of the output.
func (c *Console) ScrollTo(target string) {
	if target != booking.ScrollError {
		return
	}
	if msg := c.ctrl.State().Error; msg != "" {
		c.println("⚠️  " + msg)
	}
}

// Confirm asks a yes/no question on the next input line.
func (c *Console) Confirm(message string) bool {
	c.print(message + " (s/n) ")
	line, ok := <-c.lines
	if !ok {
		return false
	}
	answer := strings.ToLower(strings.TrimSpace(line))
	return answer == "s" || answer == "si" || answer == "sì" || answer == "y"
}

func (c *Console) exec(line string) bool {
	cmd, arg, _ := strings.Cut(strings.TrimSpace(line), " ")
	arg = strings.TrimSpace(arg)
	cmd = strings.ToLower(cmd)

	if field, ok := contactCommands[cmd]; ok {
		c.ctrl.SetContact(field, arg)
		return false
	}

	switch cmd {
	case "":
	case "data":
		c.pickDate(arg)
	case "oggi", "domani", "weekend":
		c.pickDate(cmd)
	case "calendario":
		c.showCalendar(arg)
	case "orario":
		c.ctrl.SelectTime(arg)
	case "ospiti":
		n, err := strconv.Atoi(arg)
		if err != nil {
			c.println("Numero di ospiti non valido")
			return false
		}
		c.ctrl.SetGuests(n)
	case "avanti":
		c.ctrl.Next()
	case "indietro":
		c.ctrl.Prev()
	case "conferma":
		c.ctrl.Submit()
	case "annulla":
		c.ctrl.Cancel()
	case "menu":
		c.ctrl.GoToMenu()
	case "stato":
		c.println(describe(c.ctrl.State()))
	case "aiuto", "help":
		c.println(helpText)
	case "esci":
		return true
	default:
		c.println("Comando sconosciuto. Scrivi \"aiuto\".")
	}
	return false
}

func (c *Console) pickDate(arg string) {
	var (
		iso string
		ok  bool
	)
	c.mu.Lock()
	p := c.syncPicker()
	switch {
	case p == nil:
	case arg == "oggi":
		iso, ok = p.SelectToday()
	case arg == "domani":
		iso, ok = p.SelectTomorrow()
	case arg == "weekend":
		iso, ok = p.SelectWeekend()
	default:
		if t, err := time.ParseInLocation("2006-01-02", arg, time.Local); err == nil {
			iso, ok = p.SelectDate(t)
		}
	}
	c.mu.Unlock()

	if !ok {
		c.println("Data non disponibile")
		return
	}
	c.ctrl.SetDate(iso)
}

func (c *Console) showCalendar(arg string) {
	c.mu.Lock()
	p := c.syncPicker()
	if p == nil {
		c.mu.Unlock()
		return
	}
	switch arg {
	case "+":
		p.NextMonth()
	case "-":
		p.PrevMonth()
	}
	grid := formatGrid(p)
	c.mu.Unlock()
	c.println(grid)
}

// syncPicker must be called with c.mu held.
func (c *Console) syncPicker() *calendar.Picker {
	bounds, err := calendar.ParseBounds(c.last.MinDate, c.last.MaxDate, time.Local)
	if err != nil {
		return nil
	}
	selected, _ := c.last.Draft.ParsedDate(time.Local)
	if c.picker == nil {
		c.picker = calendar.NewPicker(bounds, c.now, selected)
		return c.picker
	}
	c.picker.SetBounds(bounds)
	return c.picker
}

func (c *Console) onState(st booking.State) {
	c.mu.Lock()
	prev := c.last
	if st.Version < prev.Version {
		c.mu.Unlock()
		return
	}
	c.last = st
	c.mu.Unlock()

	for _, line := range changes(prev, st) {
		c.println(line)
	}
}

func (c *Console) println(s string) {
	c.outMu.Lock()
	defer c.outMu.Unlock()
	fmt.Fprintln(c.out, s)
}

func (c *Console) print(s string) {
	c.outMu.Lock()
	defer c.outMu.Unlock()
	fmt.Fprint(c.out, s)
}
