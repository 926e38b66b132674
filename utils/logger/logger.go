package logger

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/datazip-inc/icemirror/constants"
	"github.com/rs/zerolog"
	"github.com/spf13/viper"
	"gopkg.in/natefinch/lumberjack.v2"
)

var log zerolog.Logger

func init() {
	// console-only logger until Init wires the file output
	log = zerolog.New(console()).With().Timestamp().Logger()
}

func console() zerolog.ConsoleWriter {
	return zerolog.ConsoleWriter{
		Out:        os.Stdout,
		TimeFormat: time.RFC3339,
	}
}

// Init attaches a rotating file writer under CONFIG_FOLDER/logs next to the
// console writer. Safe to call more than once.
func Init() {
	folder := viper.GetString(constants.ConfigFolder)
	if folder == "" {
		folder = os.TempDir()
	}

	fileWriter := &lumberjack.Logger{
		Filename:   filepath.Join(folder, "logs", "icemirror.log"),
		MaxSize:    100, // megabytes
		MaxBackups: 5,
		MaxAge:     30, // days
		Compress:   true,
	}

	log = zerolog.New(zerolog.MultiLevelWriter(console(), fileWriter)).
		With().Timestamp().Logger().Level(zerolog.DebugLevel)
}

func Info(v ...any) {
	log.Info().Msg(fmt.Sprint(v...))
}

func Infof(format string, v ...any) {
	log.Info().Msgf(format, v...)
}

func Debug(v ...any) {
	log.Debug().Msg(fmt.Sprint(v...))
}

func Debugf(format string, v ...any) {
	log.Debug().Msgf(format, v...)
}

func Warn(v ...any) {
	log.Warn().Msg(fmt.Sprint(v...))
}

func Warnf(format string, v ...any) {
	log.Warn().Msgf(format, v...)
}

func Error(v ...any) {
	log.Error().Msg(fmt.Sprint(v...))
}

func Errorf(format string, v ...any) {
	log.Error().Msgf(format, v...)
}

func Fatal(v ...any) {
	log.Fatal().Msg(fmt.Sprint(v...))
}

func Fatalf(format string, v ...any) {
	log.Fatal().Msgf(format, v...)
}
