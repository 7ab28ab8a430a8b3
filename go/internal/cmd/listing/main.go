package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog/log"

	"github.com/mcdev12/gavel/go/clients/cloudinary_client"
	"github.com/mcdev12/gavel/go/clients/listing_client"
	"github.com/mcdev12/gavel/go/clients/s3_client"
	"github.com/mcdev12/gavel/go/internal/config"
	"github.com/mcdev12/gavel/go/internal/flash"
	"github.com/mcdev12/gavel/go/internal/listing"
	"github.com/mcdev12/gavel/go/internal/pageglobals"
	"github.com/mcdev12/gavel/go/internal/preview"
	"github.com/mcdev12/gavel/go/internal/staging"
	"github.com/mcdev12/gavel/go/internal/tui"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	// the terminal belongs to the UI, so logs only go to the file sink
	closer := config.SetupLogging(cfg.Log, nil)
	defer closer.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	site := listing_client.NewListingClient(cfg.Site.URL, cfg.Site.SessionCookie)
	if !cfg.UseCloudinary() {
		readUploadSettings(ctx, site, &cfg)
	}

	uploader, err := newUploader(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to set up image uploads")
	}

	strategy := cfg.UploadStrategy()
	log.Info().
		Str("site", cfg.Site.URL).
		Str("strategy", strategy.String()).
		Int("max_files", cfg.Staging.MaxFiles).
		Msg("starting listing form")

	sched := tui.NewScheduler(256)
	defer sched.Close()
	board := flash.NewBoard(sched)
	form := listing.NewForm()
	store := staging.NewStore(cfg.StagingPolicy(), board, form.Picker())
	renderer := preview.NewRenderer(sched, store, board)

	ctrl, err := listing.NewController(sched, store, form, board, listing.Config{
		Strategy:             strategy,
		Uploader:             uploader,
		Submitter:            site,
		MaxConcurrentUploads: cfg.Staging.MaxFiles,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create listing controller")
	}

	model := tui.NewListingModel(ctx, tui.ListingDeps{
		Sched:      sched,
		Board:      board,
		Store:      store,
		Renderer:   renderer,
		Form:       form,
		Controller: ctrl,
		SiteURL:    cfg.Site.URL,
	})
	if len(os.Args) > 1 {
		model.StagePaths(os.Args[1:])
	}

	if _, err := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx)).Run(); err != nil {
		log.Error().Err(err).Msg("listing form exited with error")
		os.Exit(1)
	}
}

// readUploadSettings picks up the cloud name and unsigned preset the create
// page publishes, when they are not configured locally.
func readUploadSettings(ctx context.Context, site *listing_client.ListingClient, cfg *config.Config) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	markup, err := site.FetchCreatePage(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("could not fetch create page, using local config")
		return
	}
	page, err := pageglobals.ParseAuction(markup)
	if err != nil && page.CloudName == "" {
		log.Debug().Err(err).Msg("create page carries no upload settings")
		return
	}
	if cfg.Cloudinary.CloudName == "" {
		cfg.Cloudinary.CloudName = page.CloudName
	}
	if cfg.Cloudinary.UploadPreset == "" {
		cfg.Cloudinary.UploadPreset = page.UploadPreset
	}
}

func newUploader(ctx context.Context, cfg config.Config) (listing.Uploader, error) {
	switch {
	case cfg.UseCloudinary():
		client := cloudinary_client.NewCloudinaryClient(cfg.Cloudinary.CloudName, cfg.Cloudinary.UploadPreset)
		client.SetFolder(cfg.Cloudinary.Folder)
		return listing.CloudinaryUploader{Client: client}, nil
	case cfg.S3.Bucket != "":
		return s3_client.NewS3Client(ctx, cfg.S3.Region, cfg.S3.Bucket, cfg.S3.Folder)
	default:
		return nil, nil
	}
}
