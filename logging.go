package main

import (
	"io"
	"log"
	"os"

	"gopkg.in/natefinch/lumberjack.v2"
)

// anything that prints like log does
type flogger interface {
	Printf(format string, v ...interface{})
	Println(v ...interface{})
}

// ThreadLogger tags every line with the name of the goroutine that wrote it
type ThreadLogger struct {
	name string
}

func (tl *ThreadLogger) Printf(format string, v ...interface{}) {
	log.Printf(tl.name+": "+format, v...)
}

func (tl *ThreadLogger) Println(v ...interface{}) {
	log.Println(append([]interface{}{tl.name + ":"}, v...)...)
}

// setupLogging points the standard logger at a rotating log file.  An empty
// logFile keeps stderr.  echo copies everything to stdout as well.
func setupLogging(settings configSettings, echo bool) (io.Closer, error) {
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)

	fname := settings.GetString(sLogFile)
	if fname == "" {
		return nopCloser{}, nil
	}

	lj := &lumberjack.Logger{
		Filename:   fname,
		MaxSize:    settings.GetInt(sLogMaxSize), // megabytes
		MaxBackups: settings.GetInt(sLogBackups),
		Compress:   true,
	}

	if echo {
		log.SetOutput(io.MultiWriter(lj, os.Stdout))
	} else {
		log.SetOutput(lj)
	}
	return lj, nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
