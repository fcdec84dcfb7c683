// Package main provides the Lambda entry point that indexes uploaded photos.
//
// It is subscribed to s3:ObjectCreated:* notifications on the photo bucket.
// For each new object it reads the image and its customlabels metadata,
// detects labels with Rekognition, and upserts {objectKey, bucket, labels}
// into the OpenSearch index, keyed by object key.
//
// Environment:
//
//	ES_HOST                     OpenSearch domain endpoint (or SSM_ES_HOST_PARAM)
//	ES_INDEX                    index name (default "photos")
//	PHOTO_EVENTS_BUS_NAME       optional EventBridge bus for PhotoIndexed events
//	REKOGNITION_MAX_LABELS      optional DetectLabels MaxLabels
//	REKOGNITION_MIN_CONFIDENCE  optional DetectLabels MinConfidence
//	PHOTOS_LOG_LEVEL            debug | info | warn | error
package main

import (
	"os"
	"time"

	"github.com/aws/aws-lambda-go/lambda"

	"github.com/fpang/photo-search/internal/ingest"
	"github.com/fpang/photo-search/internal/lambdaboot"
	"github.com/fpang/photo-search/internal/logging"
)

var handler *ingest.Handler

func init() {
	initStart := time.Now()
	logging.Init()

	clients := lambdaboot.InitAWS()
	store := lambdaboot.InitStore(clients.Config)
	detector := lambdaboot.InitDetector(clients.Config)
	index, sc := lambdaboot.InitSearchIndex(clients)

	var opts []ingest.Option
	notifier := lambdaboot.InitNotifier(clients.Config)
	if notifier != nil {
		opts = append(opts, ingest.WithNotifier(notifier))
	}
	handler = ingest.New(store, detector, index, opts...)

	startup := lambdaboot.StartupLog("index-photos-lambda", initStart).
		CommitHash(commitHash).
		BuildTime(buildTime).
		SearchIndex(sc.Host, sc.Index).
		Feature("notifications", notifier != nil)
	if sc.Param != "" {
		startup.SSMParam("esHost", sc.Param)
	}
	if bus := os.Getenv(lambdaboot.EnvEventBus); bus != "" {
		startup.EventBus(bus)
	}
	startup.Log()
}

func main() {
	lambda.Start(handler.HandleEvent)
}
