package middleware

import (
	"context"
	"net/http"

	"github.com/mileusna/useragent"
)

// Device classes.
const (
	DeviceDesktop = "desktop"
	DeviceMobile  = "mobile"
	DeviceTablet  = "tablet"
	DeviceBot     = "bot"
)

// DeviceClass classifies a User-Agent string.
func DeviceClass(uaString string) string {
	ua := useragent.Parse(uaString)
	switch {
	case ua.Mobile:
		return DeviceMobile
	case ua.Tablet:
		return DeviceTablet
	case ua.Bot:
		return DeviceBot
	default:
		return DeviceDesktop
	}
}

// Device stores the device class of the request in the context. Templates
// use it to start the navigation collapsed on small screens.
func Device(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := context.WithValue(r.Context(), ContextKeyDevice, DeviceClass(r.UserAgent()))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// GetDevice returns the device class of the request, desktop by default.
func GetDevice(r *http.Request) string {
	if d, ok := r.Context().Value(ContextKeyDevice).(string); ok {
		return d
	}
	return DeviceDesktop
}

// IsMobile reports whether the request comes from a phone or a tablet.
func IsMobile(r *http.Request) bool {
	d := GetDevice(r)
	return d == DeviceMobile || d == DeviceTablet
}
