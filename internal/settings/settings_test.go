package settings

import (
	"strings"
	"testing"
	"time"
)

func env(m map[string]string) func(string) string {
	return func(k string) string { return m[k] }
}

func TestFromEnv(t *testing.T) {
	clock := func() time.Time { return time.Unix(0, 1234) }
	tests := []struct {
		name    string
		env     map[string]string
		want    Settings
		wantErr string
	}{
		{
			name: "defaults",
			env:  nil,
			want: Settings{AssetRoot: DefaultAssets, Seed: 1234},
		},
		{
			name: "overrides",
			env:  map[string]string{EnvTuning: "t.yaml", EnvAssets: "/srv/assets", EnvSeed: "42"},
			want: Settings{TuningPath: "t.yaml", AssetRoot: "/srv/assets", Seed: 42},
		},
		{
			name:    "bad seed",
			env:     map[string]string{EnvSeed: "-1"},
			wantErr: EnvSeed,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := FromEnv(env(tt.env), clock)
			if tt.wantErr != "" {
				if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
					t.Fatalf("err = %v, want %q", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			if got != tt.want {
				t.Fatalf("got %+v, want %+v", got, tt.want)
			}
		})
	}
}
