package app

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithDeviceOpener replaces how the launch monitor is opened. Used by tests
// and the replay tool to inject scripted devices.
func WithDeviceOpener(open DeviceOpener) Option {
	return func(s *Service) {
		if open != nil {
			s.openDevice = open
		}
	}
}
