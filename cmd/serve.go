package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"nutrilens/config"
	"nutrilens/routes"
	"nutrilens/services"
	"nutrilens/utils"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var skipMigrate bool

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		defer utils.Log.Sync() //nolint:errcheck

		if err := settings.Validate(); err != nil {
			return err
		}
		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if err := config.InitDB(settings); err != nil {
			return err
		}
		if !skipMigrate {
			if err := config.Migrate(config.DB); err != nil {
				return err
			}
		}

		deps, err := buildDeps(ctx, settings)
		if err != nil {
			return err
		}

		gin.SetMode(settings.GinMode)
		srv := &http.Server{
			Addr:              ":" + settings.Port,
			Handler:           routes.SetupRouter(*deps),
			ReadHeaderTimeout: 10 * time.Second,
		}

		errCh := make(chan error, 1)
		go func() {
			utils.Log.Info("listening", zap.String("addr", srv.Addr))
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errCh <- err
			}
			close(errCh)
		}()

		select {
		case err := <-errCh:
			return err
		case <-ctx.Done():
		}

		utils.Log.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	},
}

func init() {
	serveCmd.Flags().BoolVar(&skipMigrate, "skip-migrate", false, "do not run migrations on start")
}

func buildDeps(ctx context.Context, s *config.Settings) (*routes.Deps, error) {
	db := config.DB

	gemini, err := services.NewGeminiService(ctx, s.GeminiAPIKey, s.GeminiModel, s.AITimeout)
	if err != nil {
		return nil, err
	}

	var ocr services.TextExtractor = gemini
	if s.OCRProvider == "rekognition" {
		rek, err := utils.NewRekognitionOCR(ctx, s.AWSRegion)
		if err != nil {
			return nil, err
		}
		ocr = rek
	}

	mailer, err := buildMailer(ctx, s)
	if err != nil {
		return nil, err
	}

	var images services.ImageUploader
	if s.S3Bucket != "" {
		store, err := utils.NewS3Store(ctx, s.S3Region, s.S3Bucket, s.CloudFrontURL)
		if err != nil {
			return nil, err
		}
		images = store
	}

	var (
		push   *services.PushService
		pusher services.Pusher
	)
	if s.SNSFCMArn != "" {
		push, err = services.NewPushService(ctx, db, s.AWSRegion, s.SNSFCMArn)
		if err != nil {
			return nil, err
		}
		pusher = push
	}

	hub := services.NewRealtimeHub()
	alerts := services.NewAlertService(db, hub, pusher)
	users := services.NewUserService(db, images)
	scan := &services.ScanDeps{
		DB:     db,
		Reader: services.NewLabelReader(db, ocr),
		AI:     gemini,
		Users:  users,
		Alerts: alerts,
		Images: images,
	}

	utils.Log.Info("services ready",
		zap.String("ocr", s.OCRProvider),
		zap.String("mail", s.MailProvider),
		zap.Bool("s3", images != nil),
		zap.Bool("push", push != nil))

	return &routes.Deps{
		DB:          db,
		Auth:        services.NewAuthService(db, mailer),
		Users:       users,
		Food:        services.NewFoodService(scan),
		Medicine:    services.NewMedicineService(scan),
		Symptoms:    services.NewSymptomService(db, gemini, users),
		History:     services.NewHistoryService(db),
		Contacts:    services.NewContactService(db, mailer, s.ContactInbox),
		Alerts:      alerts,
		Push:        push,
		Realtime:    hub,
		CORSOrigins: s.CORSOrigins,
	}, nil
}

func buildMailer(ctx context.Context, s *config.Settings) (utils.Mailer, error) {
	switch s.MailProvider {
	case "resend":
		return utils.NewResendMailer(s.ResendAPIKey, s.MailFrom), nil
	case "ses":
		return utils.NewSESMailer(ctx, s.AWSRegion, s.SESEmail)
	case "none":
		return utils.NopMailer{}, nil
	}
	return nil, fmt.Errorf("unknown MAIL_PROVIDER %q", s.MailProvider)
}
