package govinfo

import "testing"

func TestParsePackageID(t *testing.T) {
	tests := []struct {
		name      string
		packageID string
		want      ParsedPackageID
	}{
		{
			name:      "house bill",
			packageID: "BILLS-118hr10150ih",
			want: ParsedPackageID{
				Collection: "BILLS",
				Congress:   "118",
				BillType:   "hr",
				BillNumber: "10150",
				Version:    "ih",
			},
		},
		{
			name:      "senate bill enrolled",
			packageID: "BILLS-117s1260enr",
			want: ParsedPackageID{
				Collection: "BILLS",
				Congress:   "117",
				BillType:   "s",
				BillNumber: "1260",
				Version:    "enr",
			},
		},
		{
			name:      "joint resolution",
			packageID: "BILLS-116hjres31rds",
			want: ParsedPackageID{
				Collection: "BILLS",
				Congress:   "116",
				BillType:   "hjres",
				BillNumber: "31",
				Version:    "rds",
			},
		},
		{
			name:      "no dash",
			packageID: "BILLS",
			want: ParsedPackageID{
				Collection: "BILLS",
				Congress:   "Unknown",
			},
		},
		{
			name:      "empty string",
			packageID: "",
			want: ParsedPackageID{
				Congress: "Unknown",
			},
		},
		{
			name:      "missing congress digits",
			packageID: "BILLS-hr10ih",
			want: ParsedPackageID{
				Collection: "BILLS",
				Congress:   "Unknown",
				BillType:   "hr",
				BillNumber: "10",
				Version:    "ih",
			},
		},
		{
			name:      "missing version",
			packageID: "BILLS-118hr10150",
			want: ParsedPackageID{
				Collection: "BILLS",
				Congress:   "118",
				BillType:   "hr",
				BillNumber: "10150",
			},
		},
		{
			name:      "congress only",
			packageID: "BILLS-118",
			want: ParsedPackageID{
				Collection: "BILLS",
				Congress:   "118",
			},
		},
		{
			name:      "empty remainder",
			packageID: "BILLS-",
			want: ParsedPackageID{
				Collection: "BILLS",
				Congress:   "Unknown",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParsePackageID(tt.packageID)
			if got != tt.want {
				t.Errorf("ParsePackageID(%q) = %+v, want %+v", tt.packageID, got, tt.want)
			}
		})
	}
}
