// Package bot is the chat side of mcmonitor: it turns channel commands into
// status queries and posts the results, on demand or periodically.
package bot

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"github.com/albertgustavsson/mcmonitor"
	"github.com/albertgustavsson/mcmonitor/packets"
)

var ErrTooManyRequests = errors.New("Too many requests, try again later!")

// Bot holds everything a running bot owns. Create it with New, call Start
// once the messenger is connected and Shutdown before exiting.
type Bot struct {
	Config     *Config
	ConfigFile string
	Messenger  Messenger
	Store      StatusStore
	History    *History // nil disables check history

	// QueryTimeout bounds one status query; IntervalUnit is the unit of
	// ChannelSettings.UpdateInterval.
	QueryTimeout time.Duration
	IntervalUnit time.Duration

	Tasks TaskManager

	limiter *rate.Limiter
	lock    sync.Mutex // guards Config.Channels
}

func New(config *Config, configFile string, messenger Messenger) *Bot {
	config.setDefaults()
	return &Bot{
		Config:       config,
		ConfigFile:   configFile,
		Messenger:    messenger,
		Store:        NewMemoryStatusStore(time.Duration(config.StatusCacheTTL) * time.Second),
		QueryTimeout: time.Duration(config.QueryTimeout) * time.Second,
		IntervalUnit: time.Minute,
		limiter:      rate.NewLimiter(rate.Limit(config.QueryRateHz), config.QueryBurst),
	}
}

func (b *Bot) Log() logrus.FieldLogger {
	return logrus.WithField("component", "bot")
}

// Start drops channels the messenger cannot resolve and starts the periodic
// checks stored in the config.
func (b *Bot) Start() {
	type pending struct {
		id      string
		minutes int
	}
	var tasks []pending

	b.lock.Lock()
	for id, settings := range b.Config.Channels {
		name, ok := b.Messenger.ChannelName(id)
		if !ok {
			b.Log().WithField("channel", id).Warn("Couldn't find channel. Removing it from config.")
			delete(b.Config.Channels, id)
			continue
		}
		if settings.Configured() && settings.UpdateInterval > 0 {
			b.Log().WithFields(logrus.Fields{
				"channel":  name,
				"interval": settings.UpdateInterval,
			}).Info("Updating automatically")
			tasks = append(tasks, pending{id, settings.UpdateInterval})
		}
	}
	b.lock.Unlock()

	for _, task := range tasks {
		b.schedule(task.id, task.minutes)
	}
}

// Shutdown stops every scheduled task, releases the store and history and
// writes the config back. It returns the first error encountered.
func (b *Bot) Shutdown() error {
	b.Tasks.CancelAll()

	var firstErr error
	keep := func(err error) {
		if err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if b.Store != nil {
		keep(b.Store.Close())
	}
	if b.History != nil {
		keep(b.History.Close())
	}
	if b.ConfigFile != "" {
		b.lock.Lock()
		keep(SaveConfig(b.ConfigFile, b.Config))
		b.lock.Unlock()
	}
	if firstErr != nil {
		b.Log().WithError(firstErr).Error("Shutdown error")
	}
	return firstErr
}

// settings returns a copy of the channel's settings if a server is set up.
func (b *Bot) settings(channelID string) (ChannelSettings, bool) {
	b.lock.Lock()
	defer b.lock.Unlock()
	s := b.Config.Channels[channelID]
	if !s.Configured() {
		return ChannelSettings{}, false
	}
	return *s, true
}

// update changes the channel's settings, creating them if needed.
func (b *Bot) update(channelID string, f func(s *ChannelSettings)) {
	b.lock.Lock()
	defer b.lock.Unlock()
	s := b.Config.Channels[channelID]
	if s == nil {
		s = new(ChannelSettings)
		b.Config.Channels[channelID] = s
	}
	f(s)
}

func (b *Bot) schedule(channelID string, minutes int) {
	b.Tasks.Schedule(channelID, time.Duration(minutes)*b.IntervalUnit, func(ctx context.Context) {
		settings, ok := b.settings(channelID)
		if !ok {
			return
		}
		b.send(channelID, b.checkStatus(ctx, channelID, settings))
	})
}

func (b *Bot) send(channelID, text string) error {
	err := b.Messenger.Send(channelID, text)
	if err != nil {
		b.Log().WithError(err).WithField("channel", channelID).Error("Send failed")
	}
	return err
}

// checkStatus queries the channel's server, or takes a recent status from
// the store, and returns the message to post.
func (b *Bot) checkStatus(ctx context.Context, channelID string, settings ChannelSettings) string {
	addr := settings.Address()
	log := b.Log().WithFields(logrus.Fields{
		"channel": channelID,
		"address": addr,
	})

	if b.Store != nil {
		status, ok, err := b.Store.Get(addr)
		if err != nil {
			log.WithError(err).Warn("Status store lookup failed")
		} else if ok {
			return statusMessage(settings.Host, status)
		}
	}

	if !b.limiter.Allow() {
		log.Warn("Status query rate limited")
		return ErrTooManyRequests.Error()
	}

	server, err := mcmonitor.NewServer(settings.Host, settings.Port)
	if err != nil {
		log.WithError(err).Error("Invalid server settings")
		return failureMessage(settings.Host, err)
	}
	server.Timeout = b.QueryTimeout
	status, err := server.GetStatus(ctx)
	b.record(channelID, addr, status, err)
	if err != nil {
		log.WithError(err).Error("Failed to check server status")
		return failureMessage(settings.Host, err)
	}

	if b.Store != nil {
		if err := b.Store.Put(addr, status); err != nil {
			log.WithError(err).Warn("Status store update failed")
		}
	}
	return statusMessage(settings.Host, status)
}

func (b *Bot) record(channelID, addr string, status *packets.ServerStatus, err error) {
	if b.History == nil {
		return
	}
	check := &Check{
		Query:   uuid.New().String(),
		Channel: channelID,
		Address: addr,
		Ts:      time.Now(),
	}
	if err != nil {
		check.Error = err.Error()
	} else {
		check.Online = status.Players.Online
		check.Max = status.Players.Max
	}
	if rerr := b.History.Record(check); rerr != nil {
		b.Log().WithError(rerr).WithField("address", addr).Error("History insert failed")
	}
}
