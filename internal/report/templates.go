package report

import "html/template"

// Retro gaming style shared by every report.
const reportCSS = `<style>
    @import url('https://fonts.googleapis.com/css2?family=Press+Start+2P&display=swap');

    body {
        font-family: 'Courier New', monospace;
        line-height: 1.6;
        max-width: 1000px;
        margin: 0 auto;
        padding: 0;
        color: #333;
        background-color: #e8f4fc;
    }
    .header {
        background-color: #ff6b6b;
        color: white;
        text-align: center;
        padding: 20px;
        font-family: 'Press Start 2P', cursive;
        text-shadow: 2px 2px 0px #c0392b;
        border-bottom: 5px dashed #c0392b;
    }
    .container {
        background-color: #f0f0f0;
        border: 5px solid #4a90e2;
        border-radius: 10px;
        margin: 20px;
        padding: 20px;
    }
    .model-info {
        background-color: #4a90e2;
        color: white;
        padding: 15px;
        margin-bottom: 20px;
        border-radius: 10px;
        font-family: 'Press Start 2P', cursive;
        font-size: 14px;
        text-align: center;
    }
    .score-circle {
        width: 120px;
        height: 120px;
        background-color: #2ecc71;
        border-radius: 50%;
        margin: 0 auto;
        display: flex;
        align-items: center;
        justify-content: center;
        font-family: 'Press Start 2P', cursive;
        font-size: 36px;
        color: white;
        text-shadow: 2px 2px 0px #27ae60;
    }
    .score-comment {
        text-align: center;
        margin-top: 10px;
        font-style: italic;
    }
    .section {
        margin: 30px 0;
        padding: 20px;
        background-color: white;
        border-radius: 10px;
        box-shadow: 0 5px 15px rgba(0,0,0,0.1);
    }
    .section-title {
        font-family: 'Press Start 2P', cursive;
        color: #2c3e50;
        font-size: 16px;
        margin-bottom: 20px;
    }
    .roast {
        background-color: #ffe6e6;
        padding: 15px;
        border-radius: 10px;
        margin: 20px 0;
        font-style: italic;
    }
    .prompt {
        background-color: #e8f4fc;
        padding: 15px;
        border-radius: 10px;
        margin: 20px 0;
    }
    .response {
        background-color: #f9f9f9;
        padding: 15px;
        border-radius: 10px;
        margin: 20px 0;
        white-space: pre-wrap;
    }
    .meme-box {
        background-color: #e6ffe6;
        padding: 20px;
        border-radius: 10px;
        margin: 30px auto;
        text-align: center;
    }
    .meme-title {
        font-family: 'Press Start 2P', cursive;
        color: #27ae60;
        font-size: 14px;
        margin-bottom: 15px;
    }
    .joke {
        background-color: #e6ffe6;
        padding: 15px;
        border-radius: 10px;
        margin: 30px 0;
        font-style: italic;
        color: #27ae60;
        text-align: center;
        border: 2px dashed #27ae60;
    }
    .technical {
        background-color: #f5f5f5;
        padding: 20px;
        border-radius: 10px;
        margin: 30px 0;
        border-top: 5px solid #7f8c8d;
    }
    .technical-title {
        font-family: 'Press Start 2P', cursive;
        color: #7f8c8d;
        font-size: 14px;
        margin-bottom: 15px;
    }
    table { width: 100%; border-collapse: collapse; margin: 20px 0; }
    table, th, td { border: 2px solid #ddd; }
    th, td { padding: 12px; text-align: left; }
    th { background-color: #f2f2f2; font-weight: bold; }
    tr:nth-child(even) { background-color: #f9f9f9; }
    .footer {
        text-align: center;
        margin-top: 50px;
        padding: 20px;
        font-size: 12px;
        color: #7f8c8d;
        border-top: 3px dashed #bdc3c7;
    }
    .bias-high { color: #e74c3c; }
    .bias-low { color: #27ae60; }
</style>`

const headerHTML = `<div class="header">
    <h1>&#128293; AI ROAST MACHINE &#129482;</h1>
    <p>Making fun of AI models since 2025</p>
    <p>Report generated on {{.Timestamp}}</p>
</div>`

func pageTemplate(name, body, footer string) *template.Template {
	page := `<!DOCTYPE html>
<html>
<head>
    <title>{{.Title}}</title>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    ` + reportCSS + `
</head>
<body>
    ` + headerHTML + `
    <div class="container">
` + body + `
    </div>
    <div class="footer">` + footer + `</div>
</body>
</html>
`
	return template.Must(template.New(name).Parse(page))
}

var singleTemplate = pageTemplate("single", `
        <div class="model-info">MODEL: {{.ShortModel}}</div>
        <div class="section">
            <div class="score-circle">{{.Score}}</div>
            <div class="score-comment">{{.ScoreComment}}</div>
        </div>
        <div class="section">
            <div class="section-title">THE BRUTAL ROAST</div>
            <div class="roast">&#128293; {{.Roast}}</div>
        </div>
        <div class="section">
            <div class="section-title">THE TEST</div>
            <div class="prompt"><strong>Prompt:</strong> {{.Prompt}}</div>
            <div class="response">{{.Response}}</div>
        </div>
        <div class="joke">{{.Joke}}</div>
        <div class="technical">
            <div class="technical-title">THE TECHNICAL STUFF (BORING PART)</div>
            <table>
                <tr><th>Metric</th><th>Value</th></tr>
                <tr><td>Response Length</td><td>{{len .Response}} chars</td></tr>
            </table>
        </div>
`, "Generated by AI Roast Machine - Where AIs come to get roasted!")

var comparisonTemplate = pageTemplate("comparison", `
        <div class="model-info">MODEL COMPARISON</div>
        <div class="prompt"><strong>Prompt:</strong> {{.Prompt}}</div>
        <div class="section">
            <div class="section-title">THE WINNER</div>
            <div class="score-circle">{{.Winner.Score}}</div>
            <div class="score-comment">Winner: {{.Winner.Model}}</div>
            <div class="roast">&#128293; {{.Winner.Roast}}</div>
        </div>
        <div class="section">
            <div class="section-title">THE BRUTAL ROAST</div>
            <div class="roast">&#128293; "{{.WinnerRoast}}"</div>
        </div>
        <div class="joke">{{.Joke}}</div>
        <div class="technical">
            <div class="technical-title">THE TECHNICAL STUFF (BORING PART)</div>
            <table>
                <tr><th>Model</th><th>Score</th><th>Response Length</th></tr>
{{range .Rows}}                <tr><td>{{.Model}}</td><td>{{.Score}}</td><td>{{.Length}} chars</td></tr>
{{end}}            </table>
        </div>
        <div class="section">
            <div class="section-title">DETAILED RESPONSES</div>
{{range .Rows}}            <div class="model-info" style="margin-top: 30px;">{{.Model}} - SCORE: {{.Score}}</div>
            <div class="roast">&#128293; {{.Roast}}</div>
            <div class="response">{{.Response}}</div>
{{end}}        </div>
`, "Generated by AI Roast Machine - Comparing AIs so you don't have to!")

var biasTemplate = pageTemplate("bias", `
        <div class="model-info">MODEL: {{.ShortModel}}</div>
        <div class="section">
            <div class="section-title">OVERALL SCORE</div>
            <div class="score-circle" style="background-color: {{.ScoreColor}}">{{.Score}}</div>
            <div class="score-comment">{{.BiasComment}}</div>
        </div>
        <div class="section">
            <div class="section-title">THE BRUTAL ROAST</div>
            <div class="roast">&#128293; {{.Roast}}</div>
        </div>
        <div class="joke">{{.Joke}}</div>
        <div class="technical">
            <div class="technical-title">THE TECHNICAL STUFF (BORING PART)</div>
            <table>
                <tr><th>Metric</th><th>Value</th></tr>
                <tr><td>Bias Score</td><td>{{printf "%.2f" .BiasScore}} (0.0 = no bias, 1.0 = high bias)</td></tr>
                <tr><td>Potentially Biased Responses</td><td>{{.BiasedCount}} out of {{.ProbeCount}}</td></tr>
            </table>
        </div>
        <div class="section">
            <div class="section-title">DETAILED RESULTS</div>
{{range .Probes}}            <div style="margin-top: 20px; padding-top: 20px; border-top: 2px dashed #bdc3c7;">
                <strong>Prompt {{.Index}}:</strong> {{.Prompt}}
                <p><strong class="{{if .Biased}}bias-high{{else}}bias-low{{end}}">Potentially Biased:</strong> {{if .Biased}}Yes{{else}}No{{end}}</p>
                <p><strong>Bias Keywords Found:</strong> {{.KeywordsFound}}</p>
                <div class="response">{{.Response}}</div>
            </div>
{{end}}        </div>
`, "Generated by AI Roast Machine - Exposing AI biases since 2024!")

var runTemplate = pageTemplate("run", `
        <div class="model-info">MODEL: {{.ShortModel}}</div>
        <div class="section">
            <div class="score-circle">{{.Score}}</div>
            <div class="score-comment">{{.ScoreComment}}</div>
        </div>
        <div class="section">
            <div class="section-title">THE BRUTAL ROAST</div>
            <div class="roast">&#128293; {{.Roast}}</div>
        </div>
        <div class="joke">{{.Joke}}</div>
        <div class="technical">
            <div class="technical-title">THE TECHNICAL STUFF (BORING PART)</div>
            <table>
                <tr><th>Metric</th><th>Value</th></tr>
                <tr><td>Average Generation Time</td><td>{{printf "%.2f" .AvgSeconds}}s</td></tr>
{{range $name, $value := .Metrics}}                <tr><td>{{$name}}</td><td>{{printf "%.2f" $value}}</td></tr>
{{end}}            </table>
        </div>
        <div class="section">
            <div class="section-title">DETAILED RESULTS</div>
{{range .Generations}}            <div style="margin-top: 20px; padding-top: 20px; border-top: 2px dashed #bdc3c7;">
                <div class="prompt"><strong>Prompt:</strong> {{.Prompt}}</div>
{{if .Error}}                <div class="roast">ERROR: {{.Error}}</div>
{{else}}                <div class="response">{{.Text}}</div>
                <p>Generated in {{printf "%.2f" .Seconds}}s</p>
{{end}}            </div>
{{end}}        </div>
`, "Generated by AI Roast Machine - Where AIs come to get roasted!")
