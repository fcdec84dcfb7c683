// Package main provides the photo-search CLI, an operator tool that drives
// the same handlers the Lambdas run, against the configured AWS account.
//
// Examples:
//
//	photo-search upload --bucket photos-raw --labels "pet, orange-cat" ./cat1.jpg
//	photo-search index --bucket photos-raw --key cat1.jpg
//	photo-search search cat
package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/aws/aws-lambda-go/events"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/fpang/photo-search/internal/ingest"
	"github.com/fpang/photo-search/internal/lambdaboot"
	"github.com/fpang/photo-search/internal/logging"
	"github.com/fpang/photo-search/internal/photos"
	"github.com/fpang/photo-search/internal/search"
)

// CLI flags
var (
	bucketFlag string
	keyFlag    string
	labelsFlag string
)

var rootCmd = &cobra.Command{
	Use:   "photo-search",
	Short: "Upload, index and search labelled photos",
	Long: `photo-search runs the photo indexing and search handlers locally against the
S3 bucket, Rekognition and the OpenSearch domain named by the environment
(ES_HOST or SSM_ES_HOST_PARAM, ES_INDEX). Credentials come from the default
AWS credential chain.`,
	Version:           fmt.Sprintf("%s (built %s)", commitHash, buildTime),
	PersistentPreRun:  func(cmd *cobra.Command, args []string) { logging.Init() },
	SilenceUsage:      true,
	CompletionOptions: cobra.CompletionOptions{DisableDefaultCmd: true},
}

var uploadCmd = &cobra.Command{
	Use:   "upload <file>",
	Short: "Upload an image with custom labels",
	Long: `Upload a local image to S3. The comma-separated --labels are stored as the
customlabels object metadata and merged with the detected labels when the
bucket notification indexes the object.`,
	Args: cobra.ExactArgs(1),
	RunE: runUpload,
}

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Index an object that is already in S3",
	Args:  cobra.NoArgs,
	RunE:  runIndex,
}

var searchCmd = &cobra.Command{
	Use:   "search <query...>",
	Short: "Search indexed photos by label",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runSearch,
}

func init() {
	uploadCmd.Flags().StringVarP(&bucketFlag, "bucket", "b", "", "Destination S3 bucket")
	uploadCmd.Flags().StringVarP(&keyFlag, "key", "k", "", "Object key (default: the file name)")
	uploadCmd.Flags().StringVarP(&labelsFlag, "labels", "l", "", "Comma-separated custom labels")
	uploadCmd.MarkFlagRequired("bucket")

	indexCmd.Flags().StringVarP(&bucketFlag, "bucket", "b", "", "S3 bucket holding the object")
	indexCmd.Flags().StringVarP(&keyFlag, "key", "k", "", "Object key to index")
	indexCmd.MarkFlagRequired("bucket")
	indexCmd.MarkFlagRequired("key")

	rootCmd.AddCommand(uploadCmd, indexCmd, searchCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runUpload(cmd *cobra.Command, args []string) error {
	clients := lambdaboot.InitAWS()
	store := lambdaboot.InitStore(clients.Config)

	labels := photos.ParseCustomLabels(labelsFlag)
	key, err := store.PutImage(cmd.Context(), bucketFlag, keyFlag, args[0], labels)
	if err != nil {
		return err
	}
	log.Info().Str("bucket", bucketFlag).Str("key", key).Strs("customLabels", labels).Msg("Image uploaded")
	fmt.Fprintf(cmd.OutOrStdout(), "s3://%s/%s\n", bucketFlag, key)
	return nil
}

func runIndex(cmd *cobra.Command, args []string) error {
	clients := lambdaboot.InitAWS()
	index, _ := lambdaboot.InitSearchIndex(clients)
	h := ingest.New(
		lambdaboot.InitStore(clients.Config),
		lambdaboot.InitDetector(clients.Config),
		index,
	)

	event := events.S3Event{Records: []events.S3EventRecord{{
		EventSource: "aws:s3",
		S3: events.S3Entity{
			Bucket: events.S3Bucket{Name: bucketFlag},
			Object: events.S3Object{Key: keyFlag, URLDecodedKey: keyFlag},
		},
	}}}
	return printResponse(cmd, h.Handle(cmd.Context(), event))
}

func runSearch(cmd *cobra.Command, args []string) error {
	clients := lambdaboot.InitAWS()
	index, _ := lambdaboot.InitSearchIndex(clients)
	h := search.New(lambdaboot.InitStore(clients.Config), index)

	raw, err := json.Marshal(map[string]interface{}{
		"queryStringParameters": map[string]string{search.QueryParam: strings.Join(args, " ")},
	})
	if err != nil {
		return err
	}
	return printResponse(cmd, h.Handle(cmd.Context(), raw))
}

// printResponse writes the status and pretty-printed body, and turns a
// non-200 status into a command error.
func printResponse(cmd *cobra.Command, resp events.APIGatewayProxyResponse) error {
	var body interface{}
	out := resp.Body
	if err := json.Unmarshal([]byte(resp.Body), &body); err == nil {
		if pretty, err := json.MarshalIndent(body, "", "  "); err == nil {
			out = string(pretty)
		}
	}
	fmt.Fprintf(cmd.OutOrStdout(), "HTTP %d\n%s\n", resp.StatusCode, out)
	if resp.StatusCode != 200 {
		return fmt.Errorf("request failed with status %d", resp.StatusCode)
	}
	return nil
}
