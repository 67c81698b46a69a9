// Package pipeline turns a recorded clip into the text that gets typed:
// transcription first, then an optional translation pass. Translation is
// strictly best-effort; once a transcript exists the user gets text.
package pipeline

import (
	"context"
	"crypto/tls"
	"net/http"
	"time"

	"go.uber.org/zap"
	"golang.org/x/net/http2"

	"github.com/aaronpeng2020/spext/internal/config"
	"github.com/aaronpeng2020/spext/internal/language"
	"github.com/aaronpeng2020/spext/internal/profile"
	"github.com/aaronpeng2020/spext/internal/prompt"
)

// fallbackSource is assumed when auto-detection cannot classify the
// transcript but the profile still wants a translation.
const fallbackSource = "zh-CN"

// Pipeline runs the two recognition stages for a profile.
type Pipeline struct {
	cfg         config.Config
	transcriber *Transcriber
	translator  *Translator
	detector    language.Detector
	log         *zap.Logger
}

// New wires the pipeline over a shared HTTP client.
func New(cfg config.Config, httpClient *http.Client, log *zap.Logger) *Pipeline {
	return &Pipeline{
		cfg:         cfg,
		transcriber: NewTranscriber(cfg, httpClient, log),
		translator:  NewTranslator(cfg, httpClient, log),
		detector:    language.ScriptDetector{},
		log:         log,
	}
}

// NewHTTPClient builds the shared transport for both stages.
func NewHTTPClient(cfg config.Config) *http.Client {
	tr := &http.Transport{
		MaxIdleConns:          100,
		MaxIdleConnsPerHost:   100,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
	}
	if !cfg.VerifySSL {
		tr.TLSClientConfig = &tls.Config{InsecureSkipVerify: true}
	}
	if cfg.EnableHTTP2 {
		_ = http2.ConfigureTransport(tr)
	}
	return &http.Client{
		Transport: tr,
		Timeout:   time.Duration(cfg.RequestTimeout) * time.Second,
	}
}

// Process transcribes the clip under the profile's settings and translates
// the result when the profile asks for it. A transcription failure is fatal;
// a translation failure is logged and the raw transcript is returned.
func (p *Pipeline) Process(ctx context.Context, audio []byte, prof *profile.HotkeyProfile) (string, error) {
	vars := prompt.Vars{
		ProfileName:    prof.Name,
		InputLanguage:  prof.InputLanguage,
		OutputLanguage: prof.OutputLanguage,
	}

	req := TranscribeRequest{
		Audio:    audio,
		Language: prof.InputLanguage,
	}
	// A transcription hint biases the model toward echoing it, which fights
	// the translation stage. Only send one when this profile stops at
	// transcription.
	if !prof.TranslationEnabled() {
		if tpl := prof.EffectiveTranscriptionPrompt(); tpl != "" {
			req.Prompt = prompt.Process(tpl, vars)
		} else {
			req.Prompt = prompt.DefaultTranscription(prof.InputLanguage)
		}
	}

	transcript, err := p.transcriber.Transcribe(ctx, req)
	if err != nil {
		return "", err
	}
	// No speech in the clip: nothing to translate, nothing to type.
	if transcript == "" {
		return "", nil
	}
	if !prof.TranslationEnabled() {
		return transcript, nil
	}

	src := p.sourceLanguage(prof.InputLanguage, transcript)
	if src == prof.OutputLanguage {
		p.log.Debug("transcript already in target language, skipping translation",
			zap.String("language", src))
		return transcript, nil
	}

	system := prompt.DefaultTranslation(src, prof.OutputLanguage)
	if prof.TranslationPrompt != "" {
		system = prompt.Process(prof.TranslationPrompt, vars)
	}

	translated, err := p.translator.Translate(ctx, system, transcript)
	if err != nil {
		p.log.Warn("translation failed, delivering raw transcript", zap.Error(err))
		return transcript, nil
	}
	return translated, nil
}

func (p *Pipeline) sourceLanguage(input, transcript string) string {
	if language.IsConcrete(input) {
		return input
	}
	if code, ok := p.detector.Detect(transcript); ok {
		return code
	}
	p.log.Debug("language detection inconclusive, assuming fallback",
		zap.String("fallback", fallbackSource))
	return fallbackSource
}
