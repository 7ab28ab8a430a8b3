package main

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"

	"github.com/mcdev12/gavel/go/clients/listing_client"
	"github.com/mcdev12/gavel/go/internal/bidsync"
	"github.com/mcdev12/gavel/go/internal/config"
	"github.com/mcdev12/gavel/go/internal/countdown"
	"github.com/mcdev12/gavel/go/internal/flash"
	"github.com/mcdev12/gavel/go/internal/pageglobals"
	"github.com/mcdev12/gavel/go/internal/pushchannel"
	"github.com/mcdev12/gavel/go/internal/tui"
)

func main() {
	if len(os.Args) != 2 {
		fmt.Fprintln(os.Stderr, "usage: bidwatch <auction-id>")
		os.Exit(2)
	}
	auctionID := os.Args[1]

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	closer := config.SetupLogging(cfg.Log, nil)
	defer closer.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	site := listing_client.NewListingClient(cfg.Site.URL, cfg.Site.SessionCookie)
	fetchCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	markup, err := site.FetchAuctionPage(fetchCtx, auctionID)
	cancel()
	if err != nil {
		log.Fatal().Err(err).Str("auction_id", auctionID).Msg("failed to fetch auction page")
	}
	page, err := pageglobals.ParseAuction(markup)
	if err != nil {
		log.Fatal().Err(err).Str("auction_id", auctionID).Msg("failed to read auction page")
	}

	channel, err := openChannel(ctx, cfg, page.AuctionID)
	if err != nil {
		log.Fatal().Err(err).Str("transport", cfg.Push.Transport).Msg("failed to open push channel")
	}
	defer channel.Close()

	sched := tui.NewScheduler(256)
	defer sched.Close()
	board := flash.NewBoard(sched)
	sync := bidsync.New(sched, channel, board, page)
	timer := countdown.NewTimer(sched, clockwork.NewRealClock(), page.EndTime, sync)
	timer.Start(ctx)

	log.Info().
		Str("auction_id", page.AuctionID).
		Time("end_time", page.EndTime).
		Int64("price_cents", page.CurrentPriceCts).
		Msg("watching auction")

	model := tui.NewBidModel(tui.BidDeps{
		Sched: sched,
		Board: board,
		Page:  page,
		Sync:  sync,
		Timer: timer,
	})
	if _, err := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx)).Run(); err != nil {
		log.Error().Err(err).Msg("bid view exited with error")
		os.Exit(1)
	}
}

func openChannel(ctx context.Context, cfg config.Config, auctionID string) (pushchannel.Channel, error) {
	switch cfg.Push.Transport {
	case config.TransportNATS:
		natsCfg := pushchannel.DefaultNATSConfig()
		natsCfg.URL = cfg.Push.NATSURL
		natsCfg.SubjectPrefix = cfg.Push.SubjectPrefix
		natsCfg.AuctionID = auctionID
		return pushchannel.ConnectNATS(natsCfg)
	default:
		header := http.Header{}
		if cfg.Site.SessionCookie != "" {
			header.Set("Cookie", listing_client.SessionCookie(cfg.Site.SessionCookie).String())
		}
		endpoint := cfg.PushURL() + "?auction_id=" + url.QueryEscape(auctionID)
		return pushchannel.DialWebSocket(ctx, endpoint, header, pushchannel.DefaultConnectionConfig())
	}
}
