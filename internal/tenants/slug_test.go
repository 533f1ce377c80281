package tenants

import "testing"

func TestSlugify(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"Dapur Gizi Cirebon Utara", "dapur-gizi-cirebon-utara"},
		{"SPPG Sidoarjo #02", "sppg-sidoarjo-02"},
		{"  Dápur Sehát  ", "dapur-sehat"},
		{"---", ""},
		{"Gizi&Sehat", "gizi-sehat"},
	}
	for _, tc := range cases {
		if got := Slugify(tc.in); got != tc.want {
			t.Errorf("Slugify(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
