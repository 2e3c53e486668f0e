// Package catalog holds the static provider, region, and service metadata
// embedded into planner and selector prompts.
package catalog

import (
	"encoding/json"
	"sort"
	"strings"
)

// Region describes one cloud region.
type Region struct {
	Code        string `json:"-"`
	Location    string `json:"location"`
	LatencyZone string `json:"latency_zone"`
}

// Provider describes one cloud provider's regions and general strengths.
type Provider struct {
	Regions   map[string]Region `json:"regions"`
	Strengths []string          `json:"strengths"`
}

// Defaults used when a planner reply cannot be parsed.
const (
	DefaultProvider = "aws"
	DefaultRegion   = "us-east-1"
)

var providers = map[string]Provider{
	"aws": {
		Regions: map[string]Region{
			"us-east-1":      {Location: "Virginia, USA", LatencyZone: "North America East"},
			"us-west-2":      {Location: "Oregon, USA", LatencyZone: "North America West"},
			"eu-west-1":      {Location: "Ireland", LatencyZone: "Europe West"},
			"eu-central-1":   {Location: "Frankfurt, Germany", LatencyZone: "Europe Central"},
			"ap-southeast-1": {Location: "Singapore", LatencyZone: "Asia Pacific Southeast"},
			"ap-south-1":     {Location: "Mumbai, India", LatencyZone: "South Asia"},
			"ap-northeast-1": {Location: "Tokyo, Japan", LatencyZone: "Asia Pacific Northeast"},
			"sa-east-1":      {Location: "Sao Paulo, Brazil", LatencyZone: "South America"},
		},
		Strengths: []string{"Most services", "Global presence", "Mature ecosystem"},
	},
	"azure": {
		Regions: map[string]Region{
			"eastus":        {Location: "Virginia, USA", LatencyZone: "North America East"},
			"westus2":       {Location: "Washington, USA", LatencyZone: "North America West"},
			"northeurope":   {Location: "Ireland", LatencyZone: "Europe North"},
			"westeurope":    {Location: "Netherlands", LatencyZone: "Europe West"},
			"southeastasia": {Location: "Singapore", LatencyZone: "Asia Pacific Southeast"},
			"centralindia":  {Location: "Pune, India", LatencyZone: "South Asia"},
			"japaneast":     {Location: "Tokyo, Japan", LatencyZone: "Asia Pacific Northeast"},
		},
		Strengths: []string{"Microsoft integration", "Hybrid cloud", "Enterprise focus"},
	},
	"gcp": {
		Regions: map[string]Region{
			"us-east1":        {Location: "South Carolina, USA", LatencyZone: "North America East"},
			"us-west1":        {Location: "Oregon, USA", LatencyZone: "North America West"},
			"europe-west1":    {Location: "Belgium", LatencyZone: "Europe West"},
			"europe-west3":    {Location: "Frankfurt, Germany", LatencyZone: "Europe Central"},
			"asia-southeast1": {Location: "Singapore", LatencyZone: "Asia Pacific Southeast"},
			"asia-south1":     {Location: "Mumbai, India", LatencyZone: "South Asia"},
			"asia-northeast1": {Location: "Tokyo, Japan", LatencyZone: "Asia Pacific Northeast"},
		},
		Strengths: []string{"AI/ML services", "Data analytics", "Kubernetes native"},
	},
}

// locationZones maps free-text audience locations to latency zones.
var locationZones = map[string]string{
	"usa":           "North America East",
	"united states": "North America East",
	"us":            "North America East",
	"canada":        "North America East",
	"europe":        "Europe West",
	"uk":            "Europe West",
	"germany":       "Europe Central",
	"india":         "South Asia",
	"singapore":     "Asia Pacific Southeast",
	"asia":          "Asia Pacific Southeast",
	"japan":         "Asia Pacific Northeast",
	"australia":     "Asia Pacific Southeast",
	"brazil":        "South America",
}

// serviceCatalog lists managed services per provider by category.
var serviceCatalog = map[string]map[string][]string{
	"aws": {
		"compute":    {"EC2", "Lambda", "ECS", "Fargate", "EKS", "Batch"},
		"database":   {"RDS", "DynamoDB", "Aurora", "DocumentDB", "Neptune"},
		"storage":    {"S3", "EFS", "FSx", "EBS"},
		"networking": {"VPC", "CloudFront", "Route53", "ALB", "NLB"},
		"analytics":  {"Athena", "EMR", "Redshift", "Kinesis"},
		"security":   {"IAM", "KMS", "Secrets Manager", "WAF"},
	},
	"azure": {
		"compute":    {"Virtual Machines", "Functions", "Container Instances", "AKS"},
		"database":   {"SQL Database", "Cosmos DB", "PostgreSQL", "MySQL"},
		"storage":    {"Blob Storage", "Files", "Data Lake", "Disk Storage"},
		"networking": {"VNet", "CDN", "DNS", "Load Balancer", "App Gateway"},
		"analytics":  {"Synapse Analytics", "Data Factory", "Stream Analytics"},
		"security":   {"AD", "Key Vault", "Security Center"},
	},
	"gcp": {
		"compute":    {"Compute Engine", "Cloud Functions", "Cloud Run", "GKE"},
		"database":   {"Cloud SQL", "Firestore", "Cloud Spanner", "Bigtable"},
		"storage":    {"Cloud Storage", "Filestore", "Persistent Disk"},
		"networking": {"VPC", "Cloud CDN", "Cloud DNS", "Cloud Load Balancing"},
		"analytics":  {"BigQuery", "Dataflow", "Pub/Sub", "Dataproc"},
		"security":   {"IAM", "Cloud KMS", "Secret Manager"},
	},
}

// KnownProvider reports whether p names a supported cloud provider.
func KnownProvider(p string) bool {
	_, ok := providers[strings.ToLower(p)]
	return ok
}

// Providers returns the supported provider names, sorted.
func Providers() []string {
	names := make([]string, 0, len(providers))
	for p := range providers {
		names = append(names, p)
	}
	sort.Strings(names)
	return names
}

// KnownRegion reports whether region exists for provider.
func KnownRegion(provider, region string) bool {
	p, ok := providers[strings.ToLower(provider)]
	if !ok {
		return false
	}
	_, ok = p.Regions[region]
	return ok
}

// ZoneForLocation maps a free-text location to a latency zone, or ""
// when nothing matches.
func ZoneForLocation(location string) string {
	loc := strings.ToLower(strings.TrimSpace(location))
	if zone, ok := locationZones[loc]; ok {
		return zone
	}
	for key, zone := range locationZones {
		if strings.Contains(loc, key) {
			return zone
		}
	}
	return ""
}

// RegionsForZone returns, per provider, the region codes in the given
// latency zone.
func RegionsForZone(zone string) map[string][]string {
	out := make(map[string][]string)
	for name, p := range providers {
		var codes []string
		for code, r := range p.Regions {
			if r.LatencyZone == zone {
				codes = append(codes, code)
			}
		}
		sort.Strings(codes)
		if len(codes) > 0 {
			out[name] = codes
		}
	}
	return out
}

// Services returns the per-category service lists for provider.
func Services(provider string) map[string][]string {
	return serviceCatalog[strings.ToLower(provider)]
}

// ProviderRegionsJSON renders the full provider/region table as indented
// JSON for embedding into planner prompts.
func ProviderRegionsJSON() string {
	b, _ := json.MarshalIndent(providers, "", "  ")
	return string(b)
}

// ServicesJSON renders one provider's service catalog as indented JSON
// for embedding into selector prompts.
func ServicesJSON(provider string) string {
	b, _ := json.MarshalIndent(Services(provider), "", "  ")
	return string(b)
}

// ProviderStrengths returns the strengths list for provider, or nil.
func ProviderStrengths(provider string) []string {
	p, ok := providers[strings.ToLower(provider)]
	if !ok {
		return nil
	}
	return p.Strengths
}
