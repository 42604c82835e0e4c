// Package poll runs chat votes: viewers vote by sending one of the poll's options as a message.
package poll

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/Travis-Britz/ircchat"
)

// Tokens replaced in announcement messages.
const (
	OptionsToken     = "{options}"    // the options, separated by " | "
	DurationToken    = "{time}"       // the time limit in seconds
	TotalVotesToken  = "{totalVotes}" // the number of votes cast
	ResultsToken     = "{results}"    // "option - votes" for every option, most votes first
	WinnerToken      = "{winOption}"  // the option with the most votes
	WinnerCountToken = "{winTotal}"   // the votes of the winning option
)

var (
	ErrDuplicateOption = errors.New("poll: option already exists")
	ErrNoOptions       = errors.New("poll: no options")
	ErrRunning         = errors.New("poll: already running")
)

// Channel is where a poll reads votes and posts announcements.
// *ircchat.Channel implements it.
type Channel interface {
	OnMessage(func(*ircchat.ChatMessage)) (unsubscribe func())
	SendMessage(text string) error
}

// Result is the tally of one option.
type Result struct {
	Option string
	Votes  int
}

// Results is a snapshot of a poll's tally, most votes first.
// Options with equal votes keep the order they were added in.
type Results struct {
	Total  int
	Ranked []Result
}

// Winner returns the option with the most votes. ok is false when no vote was cast.
func (r Results) Winner() (res Result, ok bool) {
	if len(r.Ranked) == 0 || r.Total == 0 {
		return Result{}, false
	}
	return r.Ranked[0], true
}

// Format joins "option - votes" pairs with sep.
func (r Results) Format(sep string) string {
	var b strings.Builder
	for i, res := range r.Ranked {
		if i > 0 {
			b.WriteString(sep)
		}
		fmt.Fprintf(&b, "%s - %d", res.Option, res.Votes)
	}
	return b.String()
}

// String implements fmt.Stringer.
func (r Results) String() string {
	return r.Format(", ")
}

// Poll counts votes from a channel's messages between Start and Stop.
// Configure the exported fields before Start.
type Poll struct {
	// TimeLimit stops the poll automatically. Zero runs it until Stop.
	TimeLimit time.Duration

	// OneVotePerUser ignores repeated votes from the same chatter.
	OneVotePerUser bool

	// StartMessage and EndMessage are posted to the channel when set.
	// The options and the results are appended unless the message places them with a token.
	StartMessage string
	EndMessage   string

	Logger zerolog.Logger

	ch Channel

	mu          sync.Mutex
	options     []string
	tally       map[string]int
	voted       map[string]bool
	running     bool
	unsubscribe func()
	timer       *time.Timer
	results     Results

	onStart    []func()
	onProgress []func(Results)
	onFinish   []func(Results)
}

// New returns a poll reading votes from ch.
func New(ch Channel) *Poll {
	return &Poll{
		ch:     ch,
		tally:  make(map[string]int),
		voted:  make(map[string]bool),
		Logger: zerolog.Nop(),
	}
}

// AddOption adds a vote token.
func (p *Poll) AddOption(token string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, ok := p.tally[token]; ok {
		return ErrDuplicateOption
	}
	p.options = append(p.options, token)
	p.tally[token] = 0
	return nil
}

// OnStart registers f to be called when the poll starts.
func (p *Poll) OnStart(f func()) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.onStart = append(p.onStart, f)
}

// OnProgress registers f to be called after every counted vote.
func (p *Poll) OnProgress(f func(Results)) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.onProgress = append(p.onProgress, f)
}

// OnFinish registers f to be called with the final results.
func (p *Poll) OnFinish(f func(Results)) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.onFinish = append(p.onFinish, f)
}

// Start begins counting votes and announces the poll.
// Restarting a stopped poll lets everyone vote again but keeps the earlier
// counts; create a new Poll to count from zero.
func (p *Poll) Start() error {
	p.mu.Lock()
	if p.running {
		p.mu.Unlock()
		return ErrRunning
	}
	if len(p.options) == 0 {
		p.mu.Unlock()
		return ErrNoOptions
	}
	p.running = true
	p.voted = make(map[string]bool)
	announce := p.startAnnouncementLocked()
	callbacks := append([]func(){}, p.onStart...)
	p.mu.Unlock()

	for _, f := range callbacks {
		f()
	}

	unsubscribe := p.ch.OnMessage(p.vote)
	p.mu.Lock()
	if !p.running {
		// stopped by a start callback
		p.mu.Unlock()
		unsubscribe()
		return nil
	}
	p.unsubscribe = unsubscribe
	if p.TimeLimit > 0 {
		p.timer = time.AfterFunc(p.TimeLimit, func() { p.Stop() })
	}
	p.mu.Unlock()

	p.announce(announce)
	return nil
}

// Stop ends the poll, announces and returns the results.
// Stopping a poll that is not running returns the last results.
func (p *Poll) Stop() Results {
	p.mu.Lock()
	if !p.running {
		res := p.results
		p.mu.Unlock()
		return res
	}
	p.running = false
	if p.timer != nil {
		p.timer.Stop()
		p.timer = nil
	}
	unsubscribe := p.unsubscribe
	p.unsubscribe = nil
	p.results = p.resultsLocked()
	res := p.results
	announce := p.endAnnouncementLocked(res)
	callbacks := append([]func(Results){}, p.onFinish...)
	p.mu.Unlock()

	if unsubscribe != nil {
		unsubscribe()
	}
	for _, f := range callbacks {
		f(res)
	}
	p.announce(announce)
	return res
}

// Results returns the current tally.
func (p *Poll) Results() Results {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.resultsLocked()
}

// Running reports whether the poll is counting votes.
func (p *Poll) Running() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.running
}

func (p *Poll) vote(m *ircchat.ChatMessage) {
	token := strings.TrimSpace(m.Text())
	voter := strings.ToLower(m.Author.Name.Payload)
	if voter == "" {
		voter = strings.ToLower(m.Author.Name.Text)
	}

	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return
	}
	if _, ok := p.tally[token]; !ok {
		p.mu.Unlock()
		return
	}
	if p.OneVotePerUser && p.voted[voter] {
		p.mu.Unlock()
		return
	}
	p.tally[token]++
	p.voted[voter] = true
	res := p.resultsLocked()
	callbacks := append([]func(Results){}, p.onProgress...)
	p.mu.Unlock()

	for _, f := range callbacks {
		f(res)
	}
}

func (p *Poll) resultsLocked() Results {
	res := Results{Ranked: make([]Result, len(p.options))}
	for i, o := range p.options {
		res.Ranked[i] = Result{Option: o, Votes: p.tally[o]}
		res.Total += p.tally[o]
	}
	sort.SliceStable(res.Ranked, func(i, j int) bool {
		return res.Ranked[i].Votes > res.Ranked[j].Votes
	})
	return res
}

func (p *Poll) startAnnouncementLocked() string {
	if p.StartMessage == "" {
		return ""
	}
	msg := p.StartMessage
	if p.TimeLimit > 0 {
		msg = strings.ReplaceAll(msg, DurationToken, strconv.Itoa(int(p.TimeLimit.Seconds())))
	}
	options := strings.Join(p.options, " | ")
	if strings.Contains(msg, OptionsToken) {
		return strings.ReplaceAll(msg, OptionsToken, options)
	}
	return msg + options
}

func (p *Poll) endAnnouncementLocked(res Results) string {
	if p.EndMessage == "" {
		return ""
	}
	msg := strings.ReplaceAll(p.EndMessage, TotalVotesToken, strconv.Itoa(res.Total))
	if w, ok := res.Winner(); ok {
		msg = strings.ReplaceAll(msg, WinnerToken, w.Option)
		msg = strings.ReplaceAll(msg, WinnerCountToken, strconv.Itoa(w.Votes))
	}
	results := res.Format(" | ")
	if strings.Contains(msg, ResultsToken) {
		return strings.ReplaceAll(msg, ResultsToken, results)
	}
	return msg + results
}

func (p *Poll) announce(msg string) {
	if msg == "" {
		return
	}
	if err := p.ch.SendMessage(msg); err != nil {
		p.Logger.Warn().Err(err).Msg("poll announcement")
	}
}
