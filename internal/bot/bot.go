// Package bot is the Discord front-end: it watches configured channels
// for image attachments, runs each one through the scan pipeline and
// edits its status message with a short summary of the result.
package bot

import (
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/bwmarrin/discordgo"

	"github.com/harina-project/harina/internal/scanning"
	"github.com/harina-project/harina/internal/server"
)

var imageExtensions = []string{".png", ".jpg", ".jpeg", ".gif", ".bmp", ".webp"}

// Processor runs the receipt pipeline for one attachment.
type Processor interface {
	Process(ctx context.Context, req scanning.Request) (*scanning.Result, error)
}

// Config holds the bot settings.
type Config struct {
	Token string
	// Model to scan with; empty uses the server default.
	Model string
	// AllowedChannelIDs restricts which channels trigger processing.
	// Empty means every channel the bot can read.
	AllowedChannelIDs []string
	// MaxFileBytes rejects larger attachments before download.
	MaxFileBytes int64
}

// Bot is a running Discord session.
type Bot struct {
	session   *discordgo.Session
	processor Processor
	model     string
	allowed   map[string]bool
	maxBytes  int64
	http      *http.Client
}

// New creates a Bot; call Start to open the gateway connection.
func New(cfg Config, processor Processor) (*Bot, error) {
	if cfg.Token == "" {
		return nil, fmt.Errorf("discord bot token is required")
	}
	session, err := discordgo.New("Bot " + cfg.Token)
	if err != nil {
		return nil, fmt.Errorf("creating discord session: %w", err)
	}

	allowed := make(map[string]bool, len(cfg.AllowedChannelIDs))
	for _, id := range cfg.AllowedChannelIDs {
		if id = strings.TrimSpace(id); id != "" {
			allowed[id] = true
		}
	}

	maxBytes := cfg.MaxFileBytes
	if maxBytes <= 0 {
		maxBytes = 15 << 20
	}

	model := cfg.Model
	if model == "" {
		model = server.DefaultModel
	}

	b := &Bot{
		session:   session,
		processor: processor,
		model:     model,
		allowed:   allowed,
		maxBytes:  maxBytes,
		http:      &http.Client{},
	}
	session.Identify.Intents = discordgo.IntentsGuildMessages | discordgo.IntentMessageContent
	session.AddHandler(b.onMessage)
	return b, nil
}

// Start opens the gateway connection.
func (b *Bot) Start() error {
	if err := b.session.Open(); err != nil {
		return fmt.Errorf("opening discord session: %w", err)
	}
	slog.Info("Discord bot ready, waiting for attachments")
	return nil
}

// Close shuts the session down.
func (b *Bot) Close() error {
	return b.session.Close()
}

func (b *Bot) onMessage(s *discordgo.Session, m *discordgo.MessageCreate) {
	if m.Author == nil || m.Author.Bot {
		return
	}
	if len(b.allowed) > 0 && !b.allowed[m.ChannelID] {
		return
	}

	var images []*discordgo.MessageAttachment
	for _, att := range m.Attachments {
		if isImageAttachment(att) {
			images = append(images, att)
		}
	}
	if len(images) == 0 {
		return
	}

	channelID := b.responseChannel(s, m)
	for _, att := range images {
		b.processAttachment(s, channelID, att)
	}
}

// responseChannel creates a thread off the triggering message when
// possible, falling back to the original channel.
func (b *Bot) responseChannel(s *discordgo.Session, m *discordgo.MessageCreate) string {
	thread, err := s.MessageThreadStartComplex(m.ChannelID, m.ID, &discordgo.ThreadStart{
		Name:                "receipt-" + m.ID,
		AutoArchiveDuration: 60,
	})
	if err != nil {
		slog.Warn("Could not create thread, replying in channel", "error", err)
		return m.ChannelID
	}
	return thread.ID
}

func (b *Bot) processAttachment(s *discordgo.Session, channelID string, att *discordgo.MessageAttachment) {
	if int64(att.Size) > b.maxBytes {
		s.ChannelMessageSend(channelID, fmt.Sprintf("`%s` is too large (max %d MB)", att.Filename, b.maxBytes>>20))
		return
	}

	status, err := s.ChannelMessageSend(channelID, fmt.Sprintf("Processing `%s`...", att.Filename))
	if err != nil {
		slog.Error("Could not send status message", "error", err)
		return
	}

	summary, err := b.scan(att)
	if err != nil {
		slog.Error("Attachment processing failed", "filename", att.Filename, "error", err)
		summary = fmt.Sprintf("Processing `%s` failed: %v", att.Filename, err)
	}
	if _, err := s.ChannelMessageEdit(channelID, status.ID, summary); err != nil {
		slog.Error("Could not edit status message", "error", err)
	}
}

// scan downloads the attachment, runs the pipeline and renders the
// summary message.
func (b *Bot) scan(att *discordgo.MessageAttachment) (string, error) {
	data, err := b.download(att.URL)
	if err != nil {
		return "", err
	}
	if len(data) == 0 {
		return "", fmt.Errorf("attachment was empty")
	}

	result, err := b.processor.Process(context.Background(), scanning.Request{
		Image:       data,
		ContentType: att.ContentType,
		Model:       b.model,
		Format:      scanning.FormatXML,
	})
	if err != nil {
		return "", err
	}

	var doc scanning.Document
	if err := xml.Unmarshal([]byte(result.Data), &doc); err != nil {
		return "", fmt.Errorf("reading scan result: %w", err)
	}
	return buildResultMessage(&doc), nil
}

func (b *Bot) download(url string) ([]byte, error) {
	resp, err := b.http.Get(url)
	if err != nil {
		return nil, fmt.Errorf("downloading attachment: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("downloading attachment: status %d", resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}

// buildResultMessage renders the short chat summary: store, total and up
// to five line items.
func buildResultMessage(doc *scanning.Document) string {
	lines := []string{"Receipt processed"}

	if store := strings.TrimSpace(doc.StoreName); store != "" {
		lines = append(lines, "Store: "+store)
	}
	if total := strings.TrimSpace(doc.TotalAmount); total != "" {
		lines = append(lines, "Total: "+total)
	}

	items := doc.Items.Item
	if len(items) > 0 {
		lines = append(lines, "--- Items (first 5) ---")
		for i, item := range items {
			if i == 5 {
				break
			}
			name := strings.TrimSpace(item.Name)
			if name == "" {
				name = scanning.PlaceholderItemName
			}
			if price := strings.TrimSpace(item.TotalPrice); price != "" {
				lines = append(lines, fmt.Sprintf("- %s: %s", name, price))
			} else {
				lines = append(lines, "- "+name)
			}
		}
	}
	return strings.Join(lines, "\n")
}

// isImageAttachment accepts attachments by content type first, extension
// second.
func isImageAttachment(att *discordgo.MessageAttachment) bool {
	if strings.HasPrefix(att.ContentType, "image/") {
		return true
	}
	name := strings.ToLower(att.Filename)
	for _, ext := range imageExtensions {
		if strings.HasSuffix(name, ext) {
			return true
		}
	}
	return false
}
