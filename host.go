package vhook

import (
	"os"

	"github.com/shirou/gopsutil/v3/process"
	"go.uber.org/zap"
)

// logHost records which process vhook was loaded into.
func logHost(l *zap.Logger) {
	p, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		l.Debug("unable to inspect host process", zap.Error(err))
		return
	}

	fields := []zap.Field{zap.Int32("pid", p.Pid)}
	if name, err := p.Name(); err == nil {
		fields = append(fields, zap.String("process", name))
	}
	if exe, err := p.Exe(); err == nil {
		fields = append(fields, zap.String("exe", exe))
	}
	l.Info("attaching to host", fields...)
}
