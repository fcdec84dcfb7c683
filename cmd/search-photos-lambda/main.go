// Package main provides the Lambda entry point for photo search.
//
// It is invoked either by API Gateway (GET /search?q=...) or by a Lex bot
// fulfilment hook (the user's inputTranscript). Both channels run the same
// label match query and receive the same JSON envelope, with a one-hour
// presigned download URL per hit.
//
// Environment:
//
//	ES_HOST           OpenSearch domain endpoint (or SSM_ES_HOST_PARAM)
//	ES_INDEX          index name (default "photos")
//	PHOTOS_LOG_LEVEL  debug | info | warn | error
package main

import (
	"time"

	"github.com/aws/aws-lambda-go/lambda"

	"github.com/fpang/photo-search/internal/lambdaboot"
	"github.com/fpang/photo-search/internal/logging"
	"github.com/fpang/photo-search/internal/s3util"
	"github.com/fpang/photo-search/internal/search"
)

var handler *search.Handler

func init() {
	initStart := time.Now()
	logging.Init()

	clients := lambdaboot.InitAWS()
	store := lambdaboot.InitStore(clients.Config)
	index, sc := lambdaboot.InitSearchIndex(clients)
	handler = search.New(store, index)

	startup := lambdaboot.StartupLog("search-photos-lambda", initStart).
		CommitHash(commitHash).
		BuildTime(buildTime).
		SearchIndex(sc.Host, sc.Index).
		Config("presignExpiry", s3util.DownloadURLExpiry.String())
	if sc.Param != "" {
		startup.SSMParam("esHost", sc.Param)
	}
	startup.Log()
}

func main() {
	lambda.Start(handler.HandleEvent)
}
