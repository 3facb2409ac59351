package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"reelsmith/config"
	"reelsmith/logging"
	"reelsmith/publish"
	"reelsmith/types"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	uploadTitle       string
	uploadDescription string
	uploadTags        string
	uploadPrivacy     string
	uploadKeyFile     string
)

var uploadCmd = &cobra.Command{
	Use:   "upload <video>",
	Short: "Upload a rendered video to YouTube",
	Args:  cobra.ExactArgs(1),
	RunE:  runUpload,
}

func init() {
	f := uploadCmd.Flags()
	f.StringVar(&uploadTitle, "title", "", "video title (defaults to the file name)")
	f.StringVar(&uploadDescription, "description", "#shorts", "video description")
	f.StringVar(&uploadTags, "tags", "", "comma separated tags")
	f.StringVar(&uploadPrivacy, "privacy", config.YouTubePrivacyStatus, "privacy status: private|unlisted|public")
	f.StringVar(&uploadKeyFile, "service-account", "", "service account key file (default $YOUTUBE_SERVICE_ACCOUNT_FILE)")
}

func runUpload(cmd *cobra.Command, args []string) error {
	video := args[0]
	if _, err := os.Stat(video); err != nil {
		return types.Errorf(types.ErrConfig, "video: %w", err)
	}

	logger, closeLog, err := logging.New(logging.Options{Debug: debug})
	if err != nil {
		return err
	}
	defer closeLog()

	keyFile := uploadKeyFile
	if keyFile == "" {
		keyFile = strings.TrimSpace(os.Getenv("YOUTUBE_SERVICE_ACCOUNT_FILE"))
	}
	if keyFile == "" {
		return types.Errorf(types.ErrConfig, "no service account: pass --service-account or set YOUTUBE_SERVICE_ACCOUNT_FILE")
	}

	ctx := context.Background()
	up, err := publish.NewUploader(ctx, keyFile, logger)
	if err != nil {
		return types.NewError(types.ErrConfig, err)
	}

	title := uploadTitle
	if title == "" {
		title = strings.TrimSuffix(filepath.Base(video), filepath.Ext(video))
	}
	md := publish.Metadata{
		Title:         title,
		Description:   uploadDescription,
		Tags:          publish.ParseTags(uploadTags),
		CategoryID:    config.YouTubeCategoryID,
		PrivacyStatus: uploadPrivacy,
	}

	id, err := up.UploadVideo(ctx, video, md)
	if err != nil {
		logger.Error("upload failed", zap.Error(err))
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), "https://youtube.com/shorts/"+id)
	return nil
}
