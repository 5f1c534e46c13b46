package app

import (
	"context"
	"log"
	"time"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/textract"

	"github.com/docuflow-ai/docuflow/internal/config"
	"github.com/docuflow-ai/docuflow/internal/core"
	"github.com/docuflow-ai/docuflow/internal/core/converter"
	db "github.com/docuflow-ai/docuflow/internal/core/database"
	"github.com/docuflow-ai/docuflow/internal/core/docstore"
	objectclient "github.com/docuflow-ai/docuflow/internal/core/object-client"
	"github.com/docuflow-ai/docuflow/internal/core/ocr"
	"github.com/docuflow-ai/docuflow/internal/core/purge"
	"github.com/docuflow-ai/docuflow/internal/core/vectorcache"
	"github.com/docuflow-ai/docuflow/internal/services"
)

type App struct {
	DBClient core.DbClient
	Server   *Server
}

func NewApp(ctx context.Context, cfg *config.Config) (*App, error) {
	appCtx, cancel := context.WithTimeout(ctx, 5*time.Minute)
	defer cancel()

	dbClient, err := db.NewDatabaseClient(appCtx, cfg)
	if err != nil {
		return nil, err
	}
	log.Println("Database initialized and ready.")

	objClient, err := objectclient.NewS3Client(appCtx, cfg)
	if err != nil {
		return nil, err
	}
	log.Println("Object client initialized and ready.")

	detector, err := newTextDetector(appCtx, cfg)
	if err != nil {
		return nil, err
	}

	docs := docstore.New(cfg.DocumentsPath())
	cache := vectorcache.New(cfg.VectorCachePath())
	conv := converter.New(detector)
	purger := purge.NewCoordinator(docs, cache, dbClient)

	ingest := services.NewIngestService(dbClient, objClient, conv, docs, cfg.BucketName)
	library := services.NewLibraryService(docs, cache, purger)

	server := NewServer(cfg, ingest, library)

	return &App{DBClient: dbClient, Server: server}, nil
}

// newTextDetector builds the OCR controller over Textract. Missing AWS
// credentials leave OCR unconfigured rather than failing the whole app:
// image/PDF conversions then report a configuration failure.
func newTextDetector(ctx context.Context, cfg *config.Config) (core.TextDetector, error) {
	if cfg.AwsAccessKey == "" || cfg.AwsSecretKey == "" {
		log.Println("AWS credentials not set; OCR conversions disabled.")
		return nil, nil
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(
		ctx,
		awsconfig.WithRegion(cfg.AwsRegion),
		awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AwsAccessKey, cfg.AwsSecretKey, ""),
		),
	)
	if err != nil {
		return nil, err
	}
	client := textract.NewFromConfig(awsCfg)
	log.Println("Textract client initialized and ready.")
	return ocr.NewController(client, cfg.OCRPollEvery, cfg.OCRMaxWait), nil
}

func (a *App) Close() {
	if closer, ok := a.DBClient.(*db.DatabaseClient); ok {
		_ = closer.Close()
	}
}
