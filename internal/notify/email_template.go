package notify

const emailHTMLTemplate = `<!DOCTYPE html>
<html>
<head>
  <meta charset="UTF-8" />
  <meta name="viewport" content="width=device-width, initial-scale=1" />
  <title>{{.Match.Issuer}} – {{.Match.Title}}</title>
  <style>
    body {
      margin: 0;
      padding: 24px;
      background-color: #f3f4f6;
      font-family: -apple-system, BlinkMacSystemFont, "Segoe UI", Roboto, sans-serif;
      color: #111827;
      line-height: 1.5;
    }

    .container {
      max-width: 640px;
      margin: 0 auto;
      background: #ffffff;
      border-radius: 8px;
      border: 1px solid #e5e7eb;
      overflow: hidden;
    }

    .header {
      padding: 20px 24px;
      background: linear-gradient(135deg, #1e3a5f 0%, #37393b 100%);
      color: #ffffff;
    }

    .issuer {
      font-size: 24px;
      font-weight: 700;
      letter-spacing: 0.05em;
      margin-bottom: 4px;
    }

    .title {
      font-size: 15px;
      opacity: 0.9;
    }

    .badge {
      display: inline-block;
      margin-top: 8px;
      padding: 4px 10px;
      font-size: 11px;
      font-weight: 600;
      border-radius: 4px;
      background: #16a34a;
      color: #ffffff;
      text-transform: uppercase;
      letter-spacing: 0.05em;
    }

    .badge.review {
      background: #f97316;
    }

    .section {
      padding: 16px 24px;
      border-top: 1px solid #f3f4f6;
    }

    .section-title {
      font-size: 11px;
      font-weight: 700;
      color: #6b7280;
      text-transform: uppercase;
      letter-spacing: 0.1em;
      margin-bottom: 12px;
    }

    .meta-grid {
      display: table;
      width: 100%;
      font-size: 14px;
    }

    .meta-row {
      display: table-row;
    }

    .meta-label {
      display: table-cell;
      padding: 4px 16px 4px 0;
      color: #6b7280;
      white-space: nowrap;
    }

    .meta-value {
      display: table-cell;
      padding: 4px 0;
    }

    .context {
      font-size: 13px;
      color: #374151;
      background: #f9fafb;
      border-left: 3px solid #d1d5db;
      padding: 10px 14px;
      border-radius: 0 4px 4px 0;
    }

    .bullets {
      margin: 0;
      padding-left: 18px;
      font-size: 14px;
    }

    .bullets li {
      margin-bottom: 6px;
    }

    .footer {
      padding: 14px 24px;
      font-size: 12px;
      color: #9ca3af;
      border-top: 1px solid #f3f4f6;
    }
  </style>
</head>
<body>
  <div class="container">
    <div class="header">
      <div class="issuer">{{.Match.Issuer}}</div>
      <div class="title">{{.Match.Title}}</div>
      {{if .Match.Confirmed}}<span class="badge">Open-market purchase</span>{{else}}<span class="badge review">Needs review</span>{{end}}
    </div>

    <div class="section">
      <div class="section-title">Filing</div>
      <div class="meta-grid">
        <div class="meta-row"><div class="meta-label">Filing no.</div><div class="meta-value">{{.Match.ID}}</div></div>
        <div class="meta-row"><div class="meta-label">Submitted</div><div class="meta-value">{{.Match.SubmittedAt.Format "2006-01-02"}}</div></div>
        <div class="meta-row"><div class="meta-label">Reporter</div><div class="meta-value">{{.Match.Details.Reporter}}</div></div>
        <div class="meta-row"><div class="meta-label">Position</div><div class="meta-value">{{.Match.Details.Position}}</div></div>
        <div class="meta-row"><div class="meta-label">Shares</div><div class="meta-value">{{.Match.Details.Shares}}</div></div>
        <div class="meta-row"><div class="meta-label">Amount</div><div class="meta-value">{{.Match.Details.Amount}}</div></div>
        <div class="meta-row"><div class="meta-label">Ownership</div><div class="meta-value">{{.Match.Details.OwnershipBefore}} → {{.Match.Details.OwnershipAfter}}</div></div>
      </div>
    </div>

    {{if .Match.Context}}
    <div class="section">
      <div class="section-title">Context</div>
      <div class="context">{{.Match.Context}}</div>
    </div>
    {{end}}

    {{if .Analysis}}
    <div class="section">
      <div class="section-title">AI Summary</div>
      <ul class="bullets">
        {{range .Analysis.Summary}}<li>{{.}}</li>{{end}}
      </ul>
      {{if .Analysis.Significance}}<p>{{.Analysis.Significance}}</p>{{end}}
    </div>
    {{end}}

    <div class="footer">
      Generated {{.GeneratedAt.Format "2006-01-02 15:04 MST"}} · kindwatch
    </div>
  </div>
</body>
</html>`
