package tts

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"os/exec"
	"strings"
)

// ElevenLabsEngine calls the text-to-speech endpoint of ElevenLabs
// Endpoint: POST https://api.elevenlabs.io/v1/text-to-speech/{voice_id}
type ElevenLabsEngine struct {
	apiKey   string
	voice    string
	model    string
	endpoint string
	client   *http.Client
}

func NewElevenLabs(opts Options) (Engine, error) {
	if opts.APIKey == "" {
		return nil, errors.New("elevenlabs requires ELEVENLABS_API_KEY")
	}
	if opts.Voice == "" {
		return nil, errors.New("elevenlabs requires a voice id (ELEVENLABS_VOICE_ID or voice.voice)")
	}
	e := &ElevenLabsEngine{apiKey: opts.APIKey, voice: opts.Voice, model: opts.Model, endpoint: opts.Endpoint, client: opts.Client}
	if e.model == "" {
		e.model = "eleven_multilingual_v2"
	}
	if e.endpoint == "" {
		e.endpoint = "https://api.elevenlabs.io/v1/text-to-speech"
	}
	if e.client == nil {
		e.client = http.DefaultClient
	}
	return e, nil
}

func (e *ElevenLabsEngine) Name() string { return ElevenLabs }
func (e *ElevenLabsEngine) Ext() string  { return ".mp3" }

func (e *ElevenLabsEngine) Speak(ctx context.Context, text, outPath string) error {
	payload := map[string]interface{}{
		"text":     text,
		"model_id": e.model,
	}
	body, _ := json.Marshal(payload)

	endpoint := fmt.Sprintf("%s/%s", strings.TrimRight(e.endpoint, "/"), url.PathEscape(e.voice))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("xi-api-key", e.apiKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "audio/mpeg")

	return fetchAudio(e.client, req, outPath, "elevenlabs")
}

// DeepgramEngine calls the Deepgram speak endpoint
// Endpoint: POST https://api.deepgram.com/v1/speak?model=aura-stella-en
type DeepgramEngine struct {
	apiKey   string
	model    string
	endpoint string
	client   *http.Client
}

func NewDeepgram(opts Options) (Engine, error) {
	if opts.APIKey == "" {
		return nil, errors.New("deepgram requires DEEPGRAM_API_KEY")
	}
	d := &DeepgramEngine{apiKey: opts.APIKey, model: opts.Model, endpoint: opts.Endpoint, client: opts.Client}
	if d.model == "" {
		d.model = opts.Voice
	}
	if d.model == "" {
		d.model = "aura-stella-en"
	}
	if d.endpoint == "" {
		d.endpoint = "https://api.deepgram.com/v1/speak"
	}
	if d.client == nil {
		d.client = http.DefaultClient
	}
	return d, nil
}

func (d *DeepgramEngine) Name() string { return Deepgram }
func (d *DeepgramEngine) Ext() string  { return ".mp3" }

func (d *DeepgramEngine) Speak(ctx context.Context, text, outPath string) error {
	body, _ := json.Marshal(map[string]string{"text": text})

	endpoint := d.endpoint + "?model=" + url.QueryEscape(d.model)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Token "+d.apiKey)
	req.Header.Set("Content-Type", "application/json")

	return fetchAudio(d.client, req, outPath, "deepgram")
}

func fetchAudio(client *http.Client, req *http.Request, outPath, provider string) error {
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("%s error: %s - %s", provider, resp.Status, string(b))
	}

	f, err := os.Create(outPath)
	if err != nil {
		return err
	}
	n, err := io.Copy(f, resp.Body)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return fmt.Errorf("write %s audio: %w", provider, err)
	}
	if n == 0 {
		return fmt.Errorf("%s returned no audio", provider)
	}
	return nil
}

// CommandEngine runs a local synthesis program once per line, like
// `piper --output_file {out}` or `say -o {out} {text}`. When the template
// has no {text} placeholder the text is written to stdin.
type CommandEngine struct {
	argv []string
	ext  string
}

func NewCommand(opts Options) (Engine, error) {
	argv := strings.Fields(opts.Command)
	if len(argv) == 0 {
		return nil, errors.New("command voice provider requires TTS_COMMAND")
	}
	hasOut := false
	for _, a := range argv {
		if strings.Contains(a, "{out}") {
			hasOut = true
		}
	}
	if !hasOut {
		return nil, fmt.Errorf("TTS_COMMAND %q has no {out} placeholder", opts.Command)
	}
	return &CommandEngine{argv: argv, ext: ".wav"}, nil
}

func (c *CommandEngine) Name() string { return Command }
func (c *CommandEngine) Ext() string  { return c.ext }

func (c *CommandEngine) Speak(ctx context.Context, text, outPath string) error {
	args := make([]string, len(c.argv))
	usesText := false
	for i, a := range c.argv {
		if strings.Contains(a, "{text}") {
			usesText = true
		}
		a = strings.ReplaceAll(a, "{text}", text)
		args[i] = strings.ReplaceAll(a, "{out}", outPath)
	}

	cmd := exec.CommandContext(ctx, args[0], args[1:]...)
	if !usesText {
		cmd.Stdin = strings.NewReader(text)
	}
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("%s failed: %w: %s", args[0], err, strings.TrimSpace(stderr.String()))
	}
	return nil
}
