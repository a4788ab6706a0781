package humastar

import "testing"

func TestActionLinkHeader(t *testing.T) {
	tests := []struct {
		name string
		a    Action
		want string
	}{
		{"bare", Action{Rel: "events", Href: "/e"}, `</e>; rel="events"`},
		{"method", Action{Rel: "buckets", Href: "/b", Method: "POST"}, `</b>; rel="buckets"; method="POST"`},
		{"full", Action{Rel: "delete", Href: "/s/1", Method: "DELETE", Title: "Close session"}, `</s/1>; rel="delete"; method="DELETE"; title="Close session"`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.a.LinkHeader(); got != tt.want {
				t.Errorf("LinkHeader() = %s, want %s", got, tt.want)
			}
		})
	}
}
