package main

import (
	"database/sql"
	"flag"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/mediocregopher/radix/v3"
	"github.com/sirupsen/logrus"
	_ "github.com/ziutek/mymysql/godrv"
	"gopkg.in/gorp.v2"

	"github.com/albertgustavsson/mcmonitor/bot"
)

var (
	configFile = flag.String("config", "config.yml", "bot configuration")
	channelID  = flag.String("channel", "console", "channel id of the console")
)

func main() {
	flag.Parse()

	config, err := bot.LoadConfig(*configFile)
	if os.IsNotExist(err) {
		logrus.WithField("file", *configFile).Warn("Config file not found, using defaults")
		config, err = bot.DefaultConfig(), nil
	}
	if err != nil {
		logrus.WithError(err).Fatal("Failed to load config")
	}
	level, err := logrus.ParseLevel(config.LogLevel)
	if err != nil {
		logrus.WithError(err).Fatal("Invalid log_level")
	}
	logrus.SetLevel(level)

	console := &bot.ConsoleMessenger{ChannelID: *channelID, In: os.Stdin, Out: os.Stdout}
	b := bot.New(config, *configFile, console)

	if config.RedisAddr != "" {
		pool, err := radix.NewPool("tcp", config.RedisAddr, 4)
		if err != nil {
			logrus.WithError(err).Fatal("Failed to connect to redis")
		}
		b.Store = bot.NewRedisStatusStore(pool, time.Duration(config.StatusCacheTTL)*time.Second)
	}
	if config.HistoryDSN != "" {
		db, err := sql.Open("mymysql", config.HistoryDSN)
		if err != nil {
			logrus.WithError(err).Fatal("Failed to open history database")
		}
		b.History, err = bot.NewHistory(db, gorp.MySQLDialect{Engine: "InnoDB", Encoding: "UTF8"})
		if err != nil {
			logrus.WithError(err).Fatal("Failed to create history table")
		}
	}

	b.Start()
	logrus.Info("Bot is ready")

	var handlers sync.WaitGroup
	done := make(chan error, 1)
	go func() {
		done <- console.Run(func(msg bot.Message) {
			handlers.Add(1)
			go func() {
				defer handlers.Done()
				b.HandleMessage(msg)
			}()
		})
	}()

	signals := make(chan os.Signal, 1)
	signal.Notify(signals, os.Interrupt, syscall.SIGTERM)
	select {
	case sig := <-signals:
		logrus.WithField("signal", sig.String()).Info("Shutting down")
	case err := <-done:
		if err != nil {
			logrus.WithError(err).Error("Console read failed")
		}
		handlers.Wait()
	}

	if err := b.Shutdown(); err != nil {
		os.Exit(1)
	}
}
