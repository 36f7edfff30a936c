package logging

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Logger is the process-wide logrus instance.
var Logger = logrus.New()
var once sync.Once

const systemName = "task-manager"

// CustomFormatter renders one line per entry with a fresh event id.
type CustomFormatter struct {
	SystemName string
}

// Format implements logrus.Formatter.
func (f *CustomFormatter) Format(entry *logrus.Entry) ([]byte, error) {
	var b *bytes.Buffer
	if entry.Buffer != nil {
		b = entry.Buffer
	} else {
		b = &bytes.Buffer{}
	}

	localTime := entry.Time.In(time.Local)

	b.WriteString(fmt.Sprintf("Date: %s, Time: %s, ", localTime.Format("2006-01-02"), localTime.Format("15:04:05")))
	b.WriteString(fmt.Sprintf("Event Source: %s, ", f.SystemName))
	b.WriteString(fmt.Sprintf("Event Type: %s, ", strings.ToUpper(entry.Level.String())))
	b.WriteString(fmt.Sprintf("Event ID: %s, ", uuid.New().String()))
	b.WriteString(fmt.Sprintf("Message: %s", entry.Message))

	for k, v := range entry.Data {
		b.WriteString(fmt.Sprintf(", %s: %v", k, v))
	}

	if entry.HasCaller() {
		b.WriteString(fmt.Sprintf(", Location: %s:%d in %s", filepath.Base(entry.Caller.File), entry.Caller.Line, entry.Caller.Function))
	}

	b.WriteByte('\n')
	return b.Bytes(), nil
}

// Options controls where and how much the logger writes.
type Options struct {
	File  string
	Level string
}

// InitLogger configures Logger once: stdout plus a rotating file.
func InitLogger(opts Options) {
	once.Do(func() {
		var out io.Writer = os.Stdout

		if opts.File != "" {
			dir := filepath.Dir(opts.File)
			if _, err := os.Stat(dir); os.IsNotExist(err) {
				if err := os.MkdirAll(dir, 0700); err != nil {
					logrus.Fatalf("Event ID: LOG_DIR_CREATE_FAILED, Description: Failed to create log directory: %v", err)
				}
			}

			logFile := &lumberjack.Logger{
				Filename:   opts.File,
				MaxSize:    10, // megabytes
				MaxBackups: 3,
				MaxAge:     28, // days
				Compress:   true,
			}
			out = io.MultiWriter(os.Stdout, logFile)
		}

		Logger.SetOutput(out)
		Logger.SetFormatter(&CustomFormatter{SystemName: systemName})

		level, err := logrus.ParseLevel(opts.Level)
		if err != nil {
			level = logrus.InfoLevel
		}
		Logger.SetLevel(level)
		Logger.SetReportCaller(true)

		Logger.Infof("Event ID: LOGGER_INITIALIZED, Description: Logger initialized for %s, level %s, file %q", systemName, level, opts.File)
	})
}
