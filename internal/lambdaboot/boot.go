// Package lambdaboot provides the shared cold-start bootstrap for the index
// and search Lambdas and the photo-search CLI.
//
// Every entry point needs some subset of: AWS config, the S3 object store,
// the Rekognition detector, the OpenSearch client, the optional EventBridge
// publisher and the startup log. Each helper builds one collaborator so an
// entry point's init is a short composition; the results are injected into
// the handler structs and reused across invocations.
package lambdaboot

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/eventbridge"
	"github.com/aws/aws-sdk-go-v2/service/rekognition"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	"github.com/rs/zerolog/log"

	"github.com/fpang/photo-search/internal/logging"
	"github.com/fpang/photo-search/internal/notify"
	"github.com/fpang/photo-search/internal/s3util"
	"github.com/fpang/photo-search/internal/searchindex"
	"github.com/fpang/photo-search/internal/vision"
)

// Environment variables read at cold start.
const (
	EnvSearchHost      = "ES_HOST"
	EnvSearchIndex     = "ES_INDEX"
	EnvSearchHostParam = "SSM_ES_HOST_PARAM"
	EnvEventBus        = "PHOTO_EVENTS_BUS_NAME"
	EnvMaxLabels       = "REKOGNITION_MAX_LABELS"
	EnvMinConfidence   = "REKOGNITION_MIN_CONFIDENCE"
)

// DefaultRegion is used when neither the environment nor the shared config
// names a region.
const DefaultRegion = "us-east-1"

// AWSClients holds the AWS config and the SSM client used during bootstrap.
type AWSClients struct {
	Config aws.Config
	SSM    *ssm.Client
}

// InitAWS loads the default AWS config. Credentials come from the default
// chain (the Lambda execution role in production).
func InitAWS() AWSClients {
	cfg, err := awsconfig.LoadDefaultConfig(context.Background())
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load AWS config")
	}
	if cfg.Region == "" {
		cfg.Region = DefaultRegion
	}
	log.Debug().Str("region", cfg.Region).Msg("AWS config loaded")
	return AWSClients{
		Config: cfg,
		SSM:    ssm.NewFromConfig(cfg),
	}
}

// InitStore creates the S3-backed object store.
func InitStore(cfg aws.Config) *s3util.Store {
	return s3util.NewStoreFromClient(s3.NewFromConfig(cfg))
}

// InitDetector creates the Rekognition label detector. Fatals on malformed
// tuning variables.
func InitDetector(cfg aws.Config) *vision.Detector {
	opts, err := VisionOptionsFromEnv()
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid Rekognition configuration")
	}
	return vision.NewDetector(rekognition.NewFromConfig(cfg), opts)
}

// VisionOptionsFromEnv reads the optional DetectLabels tuning variables.
func VisionOptionsFromEnv() (vision.Options, error) {
	var opts vision.Options
	if v := os.Getenv(EnvMaxLabels); v != "" {
		n, err := strconv.ParseInt(v, 10, 32)
		if err != nil || n < 0 {
			return opts, fmt.Errorf("%s must be a non-negative integer, got %q", EnvMaxLabels, v)
		}
		opts.MaxLabels = int32(n)
	}
	if v := os.Getenv(EnvMinConfidence); v != "" {
		f, err := strconv.ParseFloat(v, 32)
		if err != nil || f < 0 || f > 100 {
			return opts, fmt.Errorf("%s must be between 0 and 100, got %q", EnvMinConfidence, v)
		}
		opts.MinConfidence = float32(f)
	}
	return opts, nil
}

// SearchConfig is the resolved search index location.
type SearchConfig struct {
	Host  string
	Index string
	// Param is the SSM parameter the host was read from, if any.
	Param string
}

// GetParameterAPI is the subset of *ssm.Client used to resolve the host.
type GetParameterAPI interface {
	GetParameter(ctx context.Context, params *ssm.GetParameterInput, optFns ...func(*ssm.Options)) (*ssm.GetParameterOutput, error)
}

// ResolveSearchConfig reads ES_HOST and ES_INDEX. When ES_HOST is empty the
// host is read from the SSM parameter named by SSM_ES_HOST_PARAM.
func ResolveSearchConfig(ctx context.Context, client GetParameterAPI) (SearchConfig, error) {
	sc := SearchConfig{
		Host:  os.Getenv(EnvSearchHost),
		Index: logging.EnvOrDefault(EnvSearchIndex, searchindex.DefaultIndex),
	}
	if sc.Host != "" {
		return sc, nil
	}

	param := os.Getenv(EnvSearchHostParam)
	if param == "" {
		return sc, fmt.Errorf("%s or %s must be set", EnvSearchHost, EnvSearchHostParam)
	}
	start := time.Now()
	result, err := client.GetParameter(ctx, &ssm.GetParameterInput{
		Name:           &param,
		WithDecryption: aws.Bool(true),
	})
	if err != nil {
		return sc, fmt.Errorf("read %s from SSM: %w", param, err)
	}
	if result.Parameter == nil || aws.ToString(result.Parameter.Value) == "" {
		return sc, fmt.Errorf("SSM parameter %s is empty", param)
	}
	sc.Host = aws.ToString(result.Parameter.Value)
	sc.Param = param
	log.Debug().Str("param", param).Dur("elapsed", time.Since(start)).Msg("Search host loaded from SSM")
	return sc, nil
}

// InitSearchIndex resolves the index location and builds a SigV4-signing
// OpenSearch client. Fatals on error.
func InitSearchIndex(clients AWSClients) (*searchindex.Client, SearchConfig) {
	sc, err := ResolveSearchConfig(context.Background(), clients.SSM)
	if err != nil {
		log.Fatal().Err(err).Msg("Search index is not configured")
	}
	index, err := searchindex.New(clients.Config, sc.Host, sc.Index)
	if err != nil {
		log.Fatal().Err(err).Str("host", sc.Host).Msg("Failed to create OpenSearch client")
	}
	return index, sc
}

// InitNotifier creates the EventBridge publisher if PHOTO_EVENTS_BUS_NAME is
// set. Returns nil (notifications disabled) otherwise.
func InitNotifier(cfg aws.Config) *notify.Publisher {
	bus := os.Getenv(EnvEventBus)
	if bus == "" {
		log.Debug().Str("envVar", EnvEventBus).Msg("Event bus not set, notifications disabled")
		return nil
	}
	return notify.NewPublisher(eventbridge.NewFromConfig(cfg), bus)
}

// StartupLog is a convenience wrapper for the startup logger.
func StartupLog(name string, initStart time.Time) *logging.StartupLogger {
	return logging.NewStartupLogger(name).InitDuration(time.Since(initStart))
}
