package logger

import "github.com/sirupsen/logrus"

type nopLogger struct{}

// NewNullLogger returns a Logger that drops every entry.
func NewNullLogger() Logger { return nopLogger{} }

func (n nopLogger) WithFields(map[string]interface{}) Logger { return n }
func (n nopLogger) WithField(string, interface{}) Logger     { return n }
func (n nopLogger) WithError(error) Logger                   { return n }
func (nopLogger) Debug(...interface{})                       {}
func (nopLogger) Info(...interface{})                        {}
func (nopLogger) Warn(...interface{})                        {}
func (nopLogger) Error(...interface{})                       {}
func (nopLogger) Log(logrus.Level, ...interface{})           {}
