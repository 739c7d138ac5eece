package telegram

import (
	"context"
	"fmt"

	"github.com/burrowbot/burrow/pkg/metrics"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/robinjoseph08/golib/logger"
)

type Handler interface {
	HandleUpdate(ctx context.Context, update tgbotapi.Update) error
}

type DispatcherOptions struct {
	// Lanes is the number of updates processed at the same time.
	Lanes int
	// PollTimeout is the long-poll timeout in seconds.
	PollTimeout int
}

// Dispatcher pulls updates from Telegram and hands them to a Handler. Updates
// from the same user always land in the same lane, so they are handled one at
// a time and in order, while different users are served in parallel.
type Dispatcher struct {
	api     API
	handler Handler
	log     logger.Logger

	pollTimeout int

	lanes          []chan tgbotapi.Update
	shutdown       chan struct{}
	doneFetching   chan struct{}
	doneProcessing chan struct{}
}

func NewDispatcher(api API, handler Handler, opts DispatcherOptions) *Dispatcher {
	n := opts.Lanes
	if n < 1 {
		n = 1
	}
	lanes := make([]chan tgbotapi.Update, n)
	for i := range lanes {
		lanes[i] = make(chan tgbotapi.Update, 16)
	}

	return &Dispatcher{
		api:     api,
		handler: handler,
		log:     logger.New(),

		pollTimeout: opts.PollTimeout,

		lanes:          lanes,
		shutdown:       make(chan struct{}),
		doneFetching:   make(chan struct{}),
		doneProcessing: make(chan struct{}, n),
	}
}

func (d *Dispatcher) Start() {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = d.pollTimeout
	updates := d.api.GetUpdatesChan(u)

	go d.fetchUpdates(updates)
	for _, lane := range d.lanes {
		go d.processUpdates(lane)
	}
}

func (d *Dispatcher) fetchUpdates(updates tgbotapi.UpdatesChannel) {
	defer func() {
		// We're shutting down, so stop taking updates from Telegram. Closing
		// the lanes lets each one finish what it was already handed.
		d.api.StopReceivingUpdates()
		for _, lane := range d.lanes {
			close(lane)
		}
		d.doneFetching <- struct{}{}
	}()

	for {
		select {
		case <-d.shutdown:
			return
		case update, ok := <-updates:
			if !ok {
				// The poller stopped on its own. Nothing more will arrive, so
				// just wait to be shut down.
				updates = nil
				continue
			}
			select {
			case d.lanes[d.laneFor(update)] <- update:
			case <-d.shutdown:
				return
			}
		}
	}
}

func (d *Dispatcher) processUpdates(lane chan tgbotapi.Update) {
	for update := range lane {
		d.process(update)
	}
	d.doneProcessing <- struct{}{}
}

func (d *Dispatcher) process(update tgbotapi.Update) {
	// Prep the context to be passed down to the handler.
	id, err := uuid.NewRandom()
	if err != nil {
		d.log.Err(err).Error("new uuid error")
		return
	}
	data := logger.Data{"update_id": update.UpdateID}
	if from := update.SentFrom(); from != nil {
		data["user_id"] = from.ID
	}
	log := d.log.ID(id.String()).Root(data)
	ctx := log.WithContext(context.Background())

	defer func() {
		if r := recover(); r != nil {
			log.Err(errors.New(fmt.Sprint(r))).Error("panic while handling update")
		}
	}()

	metrics.RecordUpdate(updateType(update))
	if err := d.handler.HandleUpdate(ctx, update); err != nil {
		log.Err(err).Error("handle update error")
	}
}

func updateType(update tgbotapi.Update) string {
	switch {
	case update.CallbackQuery != nil:
		return "callback_query"
	case update.Message != nil && update.Message.IsCommand():
		return "command"
	case update.Message != nil:
		return "message"
	default:
		return "other"
	}
}

func (d *Dispatcher) laneFor(update tgbotapi.Update) int {
	from := update.SentFrom()
	if from == nil {
		return 0
	}
	return int(uint64(from.ID) % uint64(len(d.lanes)))
}

// Shutdown stops polling and waits for every lane to drain.
func (d *Dispatcher) Shutdown() {
	close(d.shutdown)

	<-d.doneFetching
	for range d.lanes {
		<-d.doneProcessing
	}
}
