// Package publish uploads finished renders to YouTube.
package publish

import (
	"context"
	"fmt"
	"os"
	"regexp"
	"strings"
	"unicode/utf8"

	"reelsmith/config"
	"reelsmith/title"
	"reelsmith/types"

	"go.uber.org/zap"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
	"google.golang.org/api/youtube/v3"
)

const maxTitleRunes = 100

// Metadata describes an upload
type Metadata struct {
	Title         string
	Description   string
	Tags          []string
	CategoryID    string
	PrivacyStatus string
}

type Uploader struct {
	service *youtube.Service
	logger  *zap.Logger
}

// NewUploader authenticates with a service account key file
func NewUploader(ctx context.Context, serviceAccountFile string, logger *zap.Logger) (*Uploader, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	data, err := os.ReadFile(serviceAccountFile)
	if err != nil {
		return nil, fmt.Errorf("unable to read service account file: %w", err)
	}

	jwt, err := google.JWTConfigFromJSON(data, youtube.YoutubeUploadScope)
	if err != nil {
		return nil, fmt.Errorf("unable to parse service account: %w", err)
	}

	service, err := youtube.NewService(ctx, option.WithHTTPClient(jwt.Client(ctx)))
	if err != nil {
		return nil, fmt.Errorf("unable to create YouTube service: %w", err)
	}
	return &Uploader{service: service, logger: logger}, nil
}

// NewUploaderFromEnv returns nil when YOUTUBE_SERVICE_ACCOUNT_FILE is unset
func NewUploaderFromEnv(ctx context.Context, logger *zap.Logger) (*Uploader, error) {
	file := strings.TrimSpace(os.Getenv("YOUTUBE_SERVICE_ACCOUNT_FILE"))
	if file == "" {
		return nil, nil
	}
	return NewUploader(ctx, file, logger)
}

// UploadVideo uploads videoPath and returns the video id
func (u *Uploader) UploadVideo(ctx context.Context, videoPath string, md Metadata) (string, error) {
	file, err := os.Open(videoPath)
	if err != nil {
		return "", fmt.Errorf("failed to open video file: %w", err)
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return "", fmt.Errorf("failed to stat video file: %w", err)
	}
	u.logger.Info("uploading video",
		zap.String("path", videoPath),
		zap.Float64("mb", float64(info.Size())/(1024*1024)))

	privacy := md.PrivacyStatus
	if privacy == "" {
		privacy = config.YouTubePrivacyStatus
	}
	video := &youtube.Video{
		Snippet: &youtube.VideoSnippet{
			Title:       md.Title,
			Description: md.Description,
			Tags:        md.Tags,
			CategoryId:  md.CategoryID,
		},
		Status: &youtube.VideoStatus{
			PrivacyStatus:           privacy,
			SelfDeclaredMadeForKids: false,
		},
	}

	resp, err := u.service.Videos.Insert([]string{"snippet", "status"}, video).Media(file).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("failed to upload video: %w", err)
	}
	u.logger.Info("uploaded", zap.String("url", "https://youtube.com/shorts/"+resp.Id))
	return resp.Id, nil
}

var hashtagRe = regexp.MustCompile(`#([\p{L}\p{N}_]+)`)

// MetadataFor derives upload metadata from a rendered timeline. The title
// comes from the title overlay, falling back to the given name; captions
// become the description and their hashtags the tags.
func MetadataFor(tl *types.Timeline, fallback string) Metadata {
	md := Metadata{CategoryID: config.YouTubeCategoryID, PrivacyStatus: config.YouTubePrivacyStatus}

	name := fallback
	if tl != nil && tl.Title != nil && len(tl.Title.Blocks) > 0 {
		name = title.Join(tl.Title.Blocks)
	}
	md.Title = truncate(strings.TrimSpace(name), maxTitleRunes)

	seen := map[string]bool{}
	var lines []string
	if tl != nil {
		lines = tl.Captions.DisplayLines()
	}
	for _, line := range lines {
		for _, m := range hashtagRe.FindAllStringSubmatch(line, -1) {
			tag := strings.ToLower(m[1])
			if !seen[tag] {
				seen[tag] = true
				md.Tags = append(md.Tags, tag)
			}
		}
	}
	if !seen["shorts"] {
		md.Tags = append(md.Tags, "shorts")
	}

	desc := strings.Join(lines, "\n")
	if desc == "" {
		desc = md.Title
	}
	md.Description = desc + "\n\n#shorts"
	return md
}

// ParseTags splits a comma separated tag list
func ParseTags(s string) []string {
	var tags []string
	for _, t := range strings.Split(s, ",") {
		if t = strings.TrimSpace(t); t != "" {
			tags = append(tags, t)
		}
	}
	return tags
}

func truncate(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	r := []rune(s)
	return string(r[:max-3]) + "..."
}
