package lambdaboot

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	ssmtypes "github.com/aws/aws-sdk-go-v2/service/ssm/types"
)

type fakeSSM struct {
	name  string
	value *string
	err   error
	calls int
}

func (f *fakeSSM) GetParameter(ctx context.Context, params *ssm.GetParameterInput, optFns ...func(*ssm.Options)) (*ssm.GetParameterOutput, error) {
	f.calls++
	f.name = aws.ToString(params.Name)
	if f.err != nil {
		return nil, f.err
	}
	return &ssm.GetParameterOutput{Parameter: &ssmtypes.Parameter{Value: f.value}}, nil
}

func TestResolveSearchConfig_FromEnv(t *testing.T) {
	t.Setenv(EnvSearchHost, "search-photos.us-east-1.es.amazonaws.com")
	t.Setenv(EnvSearchIndex, "")
	t.Setenv(EnvSearchHostParam, "/photo-search/prod/es-host")
	client := &fakeSSM{}

	sc, err := ResolveSearchConfig(context.Background(), client)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sc.Host != "search-photos.us-east-1.es.amazonaws.com" || sc.Index != "photos" {
		t.Errorf("unexpected config: %+v", sc)
	}
	if client.calls != 0 {
		t.Error("SSM should not be read when ES_HOST is set")
	}
}

func TestResolveSearchConfig_FromSSM(t *testing.T) {
	t.Setenv(EnvSearchHost, "")
	t.Setenv(EnvSearchIndex, "photos-v2")
	t.Setenv(EnvSearchHostParam, "/photo-search/prod/es-host")
	client := &fakeSSM{value: aws.String("search-from-ssm.example.com")}

	sc, err := ResolveSearchConfig(context.Background(), client)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sc.Host != "search-from-ssm.example.com" || sc.Index != "photos-v2" || sc.Param != "/photo-search/prod/es-host" {
		t.Errorf("unexpected config: %+v", sc)
	}
	if client.name != "/photo-search/prod/es-host" {
		t.Errorf("unexpected parameter name: %s", client.name)
	}
}

func TestResolveSearchConfig_Errors(t *testing.T) {
	t.Setenv(EnvSearchHost, "")

	t.Setenv(EnvSearchHostParam, "")
	if _, err := ResolveSearchConfig(context.Background(), &fakeSSM{}); err == nil {
		t.Error("expected error when neither host nor parameter is set")
	}

	t.Setenv(EnvSearchHostParam, "/p")
	if _, err := ResolveSearchConfig(context.Background(), &fakeSSM{err: errors.New("ParameterNotFound")}); err == nil || !strings.Contains(err.Error(), "ParameterNotFound") {
		t.Errorf("expected SSM error, got %v", err)
	}
	if _, err := ResolveSearchConfig(context.Background(), &fakeSSM{value: aws.String("")}); err == nil {
		t.Error("expected error for an empty parameter")
	}
}

func TestVisionOptionsFromEnv(t *testing.T) {
	t.Setenv(EnvMaxLabels, "")
	t.Setenv(EnvMinConfidence, "")
	opts, err := VisionOptionsFromEnv()
	if err != nil || opts.MaxLabels != 0 || opts.MinConfidence != 0 {
		t.Errorf("expected zero options, got %+v, %v", opts, err)
	}

	t.Setenv(EnvMaxLabels, "15")
	t.Setenv(EnvMinConfidence, "72.5")
	opts, err = VisionOptionsFromEnv()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if opts.MaxLabels != 15 || opts.MinConfidence != 72.5 {
		t.Errorf("unexpected options: %+v", opts)
	}

	t.Setenv(EnvMaxLabels, "many")
	if _, err := VisionOptionsFromEnv(); err == nil {
		t.Error("expected error for a non-numeric max labels")
	}

	t.Setenv(EnvMaxLabels, "")
	t.Setenv(EnvMinConfidence, "120")
	if _, err := VisionOptionsFromEnv(); err == nil {
		t.Error("expected error for confidence above 100")
	}
}

func TestInitNotifier_Disabled(t *testing.T) {
	t.Setenv(EnvEventBus, "")
	if n := InitNotifier(aws.Config{Region: "us-east-1"}); n != nil {
		t.Error("expected nil publisher when no bus is configured")
	}
}
