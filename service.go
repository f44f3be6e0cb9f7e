package gatt

import (
	"fmt"

	"github.com/godbus/dbus/v5"
)

// A Service is a BLE service.
// Calls to AddCharacteristic must occur before the
// application is exported.
type Service struct {
	path    dbus.ObjectPath
	uuid    UUID
	primary bool
	app     *Application
	chars   []*Characteristic
}

// AddCharacteristic adds a characteristic to a service.
// AddCharacteristic panics if the service already contains
// another characteristic with the same UUID, if a flag is unknown,
// or if the application has already been exported.
func (s *Service) AddCharacteristic(u UUID, flags ...Flag) *Characteristic {
	s.app.mustBeOpen()
	for _, char := range s.chars {
		if char.uuid.Equal(u) {
			panic("service already contains a characteristic with uuid " + u.String())
		}
	}

	char := &Characteristic{
		path:    dbus.ObjectPath(fmt.Sprintf("%s/char%d", s.path, len(s.chars))),
		uuid:    u,
		service: s,
		attrValue: attrValue{
			flags: newFlags(flags),
		},
	}
	s.chars = append(s.chars, char)
	return char
}

// Path returns the service's object path.
func (s *Service) Path() dbus.ObjectPath { return s.path }

// UUID returns the service's UUID.
func (s *Service) UUID() UUID { return s.uuid }

// Primary reports whether the service is primary.
func (s *Service) Primary() bool { return s.primary }

// Characteristics returns the service's characteristics.
func (s *Service) Characteristics() []*Characteristic { return s.chars }

// Application returns the application the service belongs to.
func (s *Service) Application() *Application { return s.app }

func (s *Service) Interface() string { return GattServiceInterface }

func (s *Service) Parent() AttributeNode { return nil }

func (s *Service) Children() []AttributeNode {
	nn := make([]AttributeNode, len(s.chars))
	for i, c := range s.chars {
		nn[i] = c
	}
	return nn
}

func (s *Service) Properties() map[string]dbus.Variant {
	paths := make([]dbus.ObjectPath, len(s.chars))
	for i, c := range s.chars {
		paths[i] = c.path
	}
	return map[string]dbus.Variant{
		"UUID":            dbus.MakeVariant(s.uuid.String()),
		"Primary":         dbus.MakeVariant(s.primary),
		"Characteristics": dbus.MakeVariant(paths),
	}
}
