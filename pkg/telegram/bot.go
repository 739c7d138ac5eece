// Package telegram connects the navigation engine to a Telegram chat. It turns
// commands and button taps into engine calls and engine outcomes into
// messages, keyboard edits, alerts and document uploads.
package telegram

import (
	"context"
	"io"
	"os"
	"strings"

	"github.com/burrowbot/burrow/pkg/filesystem"
	"github.com/burrowbot/burrow/pkg/metrics"
	"github.com/burrowbot/burrow/pkg/models"
	"github.com/burrowbot/burrow/pkg/navigation"
	"github.com/burrowbot/burrow/pkg/pathguard"
	"github.com/gabriel-vasile/mimetype"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/pkg/errors"
	"github.com/robinjoseph08/golib/logger"
	"github.com/robinjoseph08/golib/pointerutil"
)

// API is the part of *tgbotapi.BotAPI the bot uses.
type API interface {
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

type Navigator interface {
	Browse(ctx context.Context, userID int64) navigation.Outcome
	Apply(ctx context.Context, userID int64, token string) navigation.Outcome
}

type FileOpener interface {
	Open(ctx context.Context, loc pathguard.Location) (*os.File, *filesystem.Entry, error)
}

type DeliveryRecorder interface {
	CreateDelivery(ctx context.Context, delivery *models.Delivery) error
}

type Options struct {
	// MaxFileSize is the largest file that will be uploaded, in bytes.
	MaxFileSize int64
}

type Bot struct {
	api        API
	navigator  Navigator
	files      FileOpener
	deliveries DeliveryRecorder

	maxFileSize int64
}

func NewBot(api API, navigator Navigator, files FileOpener, deliveries DeliveryRecorder, opts Options) *Bot {
	return &Bot{
		api:         api,
		navigator:   navigator,
		files:       files,
		deliveries:  deliveries,
		maxFileSize: opts.MaxFileSize,
	}
}

// HandleUpdate processes a single update. Updates that are neither a message
// nor a button tap are ignored.
func (b *Bot) HandleUpdate(ctx context.Context, update tgbotapi.Update) error {
	switch {
	case update.CallbackQuery != nil:
		return b.handleCallbackQuery(ctx, update.CallbackQuery)
	case update.Message != nil:
		return b.handleMessage(ctx, update.Message)
	default:
		return nil
	}
}

func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) error {
	// Channel posts and the like have no sender to keep a session for.
	if msg.From == nil || msg.Chat == nil {
		return nil
	}
	chatID := msg.Chat.ID

	switch msg.Command() {
	case "start":
		return b.send(tgbotapi.NewMessage(chatID, startText(msg.From.FirstName)))
	case "browse":
		outcome := b.navigator.Browse(ctx, msg.From.ID)
		if outcome.Kind != navigation.OutcomeNavigated {
			return b.send(tgbotapi.NewMessage(chatID, outcome.Message()))
		}
		text, keyboard := renderListing(outcome.Listing)
		reply := tgbotapi.NewMessage(chatID, text)
		if len(keyboard.InlineKeyboard) > 0 {
			reply.ReplyMarkup = keyboard
		}
		return b.send(reply)
	default:
		return b.send(tgbotapi.NewMessage(chatID, helpText))
	}
}

func (b *Bot) handleCallbackQuery(ctx context.Context, cq *tgbotapi.CallbackQuery) error {
	if cq.From == nil {
		return b.answer(tgbotapi.NewCallback(cq.ID, ""))
	}
	log := logger.FromContext(ctx)

	outcome := b.navigator.Apply(ctx, cq.From.ID, cq.Data)
	switch outcome.Kind {
	case navigation.OutcomeNavigated:
		if err := b.showListing(ctx, cq, outcome.Listing); err != nil {
			return err
		}
		return b.answer(tgbotapi.NewCallback(cq.ID, ""))
	case navigation.OutcomeFileRequested:
		return b.sendFile(ctx, cq, outcome.File)
	default:
		log.Debug("action not applied", logger.Data{"outcome": outcome.Kind.String(), "reason": outcome.Reason})
		return b.answer(tgbotapi.NewCallbackWithAlert(cq.ID, outcome.Message()))
	}
}

// showListing edits the message the button belongs to. If that message is
// no longer available a new one is sent instead.
func (b *Bot) showListing(ctx context.Context, cq *tgbotapi.CallbackQuery, listing *navigation.Listing) error {
	text, keyboard := renderListing(listing)

	if cq.Message == nil || cq.Message.Chat == nil {
		reply := tgbotapi.NewMessage(cq.From.ID, text)
		if len(keyboard.InlineKeyboard) > 0 {
			reply.ReplyMarkup = keyboard
		}
		return b.send(reply)
	}

	edit := tgbotapi.NewEditMessageTextAndMarkup(cq.Message.Chat.ID, cq.Message.MessageID, text, keyboard)
	_, err := b.api.Request(edit)
	if err != nil && !isNotModified(err) {
		return errors.WithStack(err)
	}
	if err != nil {
		logger.FromContext(ctx).Debug("listing unchanged", logger.Data{"path": listing.Path})
	}
	return nil
}

// sendFile uploads the requested file and records the attempt. The file is
// opened through the lister again, so a file replaced by something else in
// the meantime is refused.
func (b *Bot) sendFile(ctx context.Context, cq *tgbotapi.CallbackQuery, req *navigation.FileRequest) error {
	log := logger.FromContext(ctx).Data(logger.Data{"path": req.Path})

	chatID := cq.From.ID
	if cq.Message != nil && cq.Message.Chat != nil {
		chatID = cq.Message.Chat.ID
	}
	delivery := &models.Delivery{
		UserID: cq.From.ID,
		ChatID: chatID,
		Path:   req.Path,
		Name:   req.Name,
		Size:   req.Size,
	}

	f, entry, err := b.files.Open(ctx, req.Location)
	if err != nil {
		outcome := openFailure(err)
		log.Warn("file can't be opened", logger.Data{"error": err.Error()})
		b.record(ctx, delivery, models.DeliveryStatusFailed, err)
		return b.answer(tgbotapi.NewCallbackWithAlert(cq.ID, outcome.Message()))
	}
	defer f.Close()
	delivery.Size = entry.Size

	if b.maxFileSize > 0 && entry.Size > b.maxFileSize {
		log.Info("file too large to send", logger.Data{"size": entry.Size, "max_file_size": b.maxFileSize})
		b.record(ctx, delivery, models.DeliveryStatusRejected, errors.New("file too large"))
		return b.answer(tgbotapi.NewCallbackWithAlert(cq.ID, fileTooLargeText))
	}

	mime, err := mimetype.DetectReader(f)
	if err == nil {
		delivery.MimeType = pointerutil.String(mime.String())
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		b.record(ctx, delivery, models.DeliveryStatusFailed, err)
		_ = b.answer(tgbotapi.NewCallbackWithAlert(cq.ID, sendFailedText))
		return errors.WithStack(err)
	}

	doc := tgbotapi.NewDocument(chatID, tgbotapi.FileReader{Name: entry.Name, Reader: f})
	if _, err := b.api.Send(doc); err != nil {
		b.record(ctx, delivery, models.DeliveryStatusFailed, err)
		_ = b.answer(tgbotapi.NewCallbackWithAlert(cq.ID, sendFailedText))
		return errors.WithStack(err)
	}

	b.record(ctx, delivery, models.DeliveryStatusSent, nil)
	log.Info("file sent", logger.Data{"size": entry.Size})
	return b.answer(tgbotapi.NewCallback(cq.ID, fileSentText(entry.Name)))
}

// record stores the delivery. A failure to store it is logged and otherwise
// ignored since the user-facing part already happened.
func (b *Bot) record(ctx context.Context, delivery *models.Delivery, status string, cause error) {
	metrics.RecordDelivery(status, delivery.Size, status == models.DeliveryStatusSent)
	if b.deliveries == nil {
		return
	}
	delivery.Status = status
	if cause != nil {
		delivery.Error = pointerutil.String(cause.Error())
	}
	if err := b.deliveries.CreateDelivery(ctx, delivery); err != nil {
		logger.FromContext(ctx).Err(err).Error("failed to record delivery", logger.Data{"path": delivery.Path})
	}
}

func (b *Bot) send(c tgbotapi.Chattable) error {
	_, err := b.api.Send(c)
	return errors.WithStack(err)
}

func (b *Bot) answer(c tgbotapi.CallbackConfig) error {
	_, err := b.api.Request(c)
	return errors.WithStack(err)
}

// openFailure maps an error from opening a file to the outcome the user is
// shown.
func openFailure(err error) navigation.Outcome {
	switch {
	case errors.Is(err, filesystem.ErrNotFound):
		return navigation.Outcome{Kind: navigation.OutcomeNotFound}
	case errors.Is(err, filesystem.ErrPermissionDenied):
		return navigation.Outcome{Kind: navigation.OutcomePermissionDenied}
	default:
		return navigation.Outcome{Kind: navigation.OutcomeFailed}
	}
}

// isNotModified reports whether Telegram refused an edit because nothing
// changed, which happens when the same button is tapped twice.
func isNotModified(err error) bool {
	var apiErr *tgbotapi.Error
	if errors.As(err, &apiErr) {
		return strings.Contains(apiErr.Message, "message is not modified")
	}
	return false
}
