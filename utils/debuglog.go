package utils

import (
	"context"
	"log/slog"

	"github.com/moodclient/retroterm"
	"github.com/moodclient/retroterm/transfer"
)

const LevelNone slog.Level = -8

type DebugLogConfig struct {
	EncounteredErrorLevel slog.Level
	EmulatorResponseLevel slog.Level
	TransferStatusLevel   slog.Level
	BellLevel             slog.Level
	WindowTitleLevel      slog.Level
	MusicSequenceLevel    slog.Level
}

type DebugLog struct {
	logger *slog.Logger
	config DebugLogConfig
}

func NewDebugLog(session *retroterm.Session, logger *slog.Logger, config DebugLogConfig) *DebugLog {
	log := &DebugLog{logger: logger, config: config}

	session.RegisterEncounteredErrorHook(log.logError)
	session.RegisterEmulatorResponseHook(log.logEmulatorResponse)
	session.RegisterTransferStatusHook(log.logTransferStatus)
	session.RegisterBellHook(log.logBell)
	session.RegisterWindowTitleHook(log.logWindowTitle)
	session.RegisterMusicSequenceHook(log.logMusicSequence)

	return log
}

func (l *DebugLog) logError(session *retroterm.Session, err error) {
	l.logger.LogAttrs(context.Background(), l.config.EncounteredErrorLevel, "Encountered error", slog.Any("error", err))
}

func (l *DebugLog) logEmulatorResponse(session *retroterm.Session, response []byte) {
	l.logger.LogAttrs(context.Background(), l.config.EmulatorResponseLevel, "Emulator response", slog.String("bytes", EscapeBytes(response)))
}

func (l *DebugLog) logTransferStatus(session *retroterm.Session, stats transfer.Statistics) {
	l.logger.LogAttrs(context.Background(), l.config.TransferStatusLevel, "Transfer status",
		slog.String("flavor", stats.Flavor.String()),
		slog.String("file", stats.Filename),
		slog.Int64("blocks", stats.Blocks),
		slog.Int64("bytes", stats.Bytes),
		slog.Int("errors", stats.Errors),
		slog.String("status", stats.Status),
	)
}

func (l *DebugLog) logBell(session *retroterm.Session, _ struct{}) {
	l.logger.LogAttrs(context.Background(), l.config.BellLevel, "Bell")
}

func (l *DebugLog) logWindowTitle(session *retroterm.Session, title string) {
	l.logger.LogAttrs(context.Background(), l.config.WindowTitleLevel, "Window title", slog.String("title", title))
}

func (l *DebugLog) logMusicSequence(session *retroterm.Session, notes []byte) {
	l.logger.LogAttrs(context.Background(), l.config.MusicSequenceLevel, "Music sequence", slog.String("notes", string(notes)))
}
