package models

import (
	"fmt"
	"time"
)

// MDuration is a time.Duration that unmarshals from YAML strings like "60s".
type MDuration time.Duration

func (d *MDuration) UnmarshalYAML(unmarshal func(any) error) error {
	var s string
	err := unmarshal(&s)
	if err != nil {
		return err
	}

	duration, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("couldn't parse duration: %w", err)
	}

	*d = MDuration(duration)
	return nil
}

func (d *MDuration) Duration() time.Duration {
	return time.Duration(*d)
}
